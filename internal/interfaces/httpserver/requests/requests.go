package requests

// SendMessageRequest is the body of an agent reply.
type SendMessageRequest struct {
	Text string `json:"text"`
}

// ListConversationsQuery filters the dashboard list.
type ListConversationsQuery struct {
	Status    string `form:"status"`
	Limit     int    `form:"limit"`
	PageToken string `form:"pageToken"`
}

// PageQuery pages a conversation's messages.
type PageQuery struct {
	Limit     int    `form:"limit"`
	PageToken string `form:"pageToken"`
}
