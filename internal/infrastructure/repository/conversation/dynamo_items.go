package conversation

import (
	"time"

	domain "doubtit/support-api/internal/domain/conversation"
)

// Single-table layout:
//
//	header   pk=CONV#<id>       sk=CONV          gsi1=STATUS#<status>/<last_active>  gsi3=TG#<thread>/CONV
//	message  pk=CONV#<id>       sk=MSG#<ulid>
//	guard    pk=THREAD#<thread> sk=THREAD        (create-if-absent lock for a thread)
const (
	attrPK     = "pk"
	attrSK     = "sk"
	attrGSI1PK = "gsi1pk"
	attrGSI1SK = "gsi1sk"
	attrGSI3PK = "gsi3pk"
	attrGSI3SK = "gsi3sk"

	headerSK      = "CONV"
	threadGuardSK = "THREAD"
	messagePrefix = "MSG#"

	itemTypeConversation = "CONVERSATION"
	itemTypeMessage      = "MESSAGE"
	itemTypeThreadGuard  = "THREAD_GUARD"
)

// dynamoTimeLayout is fixed width so lexical order matches time order.
const dynamoTimeLayout = "2006-01-02T15:04:05.000000Z07:00"

func conversationPK(id string) string { return "CONV#" + id }

func statusPK(status domain.Status) string { return "STATUS#" + string(status) }

func threadPK(threadID string) string { return "TG#" + threadID }

func threadGuardPK(threadID string) string { return "THREAD#" + threadID }

func messageSK(id string) string { return messagePrefix + id }

func formatTime(t time.Time) string {
	return t.UTC().Format(dynamoTimeLayout)
}

func parseTime(raw string) time.Time {
	t, err := time.Parse(dynamoTimeLayout, raw)
	if err != nil {
		t, _ = time.Parse(time.RFC3339Nano, raw)
	}
	return t.UTC()
}

type headerItem struct {
	PK             string `dynamodbav:"pk"`
	SK             string `dynamodbav:"sk"`
	Type           string `dynamodbav:"type"`
	ID             string `dynamodbav:"id"`
	ThreadID       string `dynamodbav:"telegram_chat_id"`
	UserName       string `dynamodbav:"user_name"`
	Status         string `dynamodbav:"status"`
	CurrentAgentID string `dynamodbav:"current_agent_id,omitempty"`
	StartedAt      string `dynamodbav:"started_at"`
	LastActive     string `dynamodbav:"last_active"`
	EndedAt        string `dynamodbav:"ended_at,omitempty"`
	GSI1PK         string `dynamodbav:"gsi1pk"`
	GSI1SK         string `dynamodbav:"gsi1sk"`
	GSI3PK         string `dynamodbav:"gsi3pk"`
	GSI3SK         string `dynamodbav:"gsi3sk"`
}

func newHeaderItem(c *domain.Conversation) headerItem {
	item := headerItem{
		PK:             conversationPK(c.ID),
		SK:             headerSK,
		Type:           itemTypeConversation,
		ID:             c.ID,
		ThreadID:       c.ThreadID,
		UserName:       c.UserName,
		Status:         string(c.Status),
		CurrentAgentID: c.CurrentAgentID,
		StartedAt:      formatTime(c.StartedAt),
		LastActive:     formatTime(c.LastActive),
		GSI1PK:         statusPK(c.Status),
		GSI1SK:         formatTime(c.LastActive),
		GSI3PK:         threadPK(c.ThreadID),
		GSI3SK:         headerSK,
	}
	if c.EndedAt != nil {
		item.EndedAt = formatTime(*c.EndedAt)
	}
	return item
}

func (h headerItem) toDomain() *domain.Conversation {
	conv := &domain.Conversation{
		ID:             h.ID,
		ThreadID:       h.ThreadID,
		UserName:       h.UserName,
		Status:         domain.Status(h.Status),
		CurrentAgentID: h.CurrentAgentID,
		StartedAt:      parseTime(h.StartedAt),
		LastActive:     parseTime(h.LastActive),
	}
	if h.EndedAt != "" {
		ended := parseTime(h.EndedAt)
		conv.EndedAt = &ended
	}
	return conv
}

type threadGuardItem struct {
	PK             string `dynamodbav:"pk"`
	SK             string `dynamodbav:"sk"`
	Type           string `dynamodbav:"type"`
	ConversationID string `dynamodbav:"conversation_id"`
}

type messageItem struct {
	PK               string `dynamodbav:"pk"`
	SK               string `dynamodbav:"sk"`
	Type             string `dynamodbav:"type"`
	ID               string `dynamodbav:"id"`
	ConversationID   string `dynamodbav:"conversation_id"`
	SenderType       string `dynamodbav:"sender_type"`
	Content          string `dynamodbav:"content"`
	ChannelMessageID string `dynamodbav:"telegram_message_id,omitempty"`
	CreatedAt        string `dynamodbav:"created_at"`
}

func newMessageItem(m *domain.Message) messageItem {
	return messageItem{
		PK:               conversationPK(m.ConversationID),
		SK:               messageSK(m.ID),
		Type:             itemTypeMessage,
		ID:               m.ID,
		ConversationID:   m.ConversationID,
		SenderType:       string(m.SenderType),
		Content:          m.Content,
		ChannelMessageID: m.ChannelMessageID,
		CreatedAt:        formatTime(m.CreatedAt),
	}
}

func (m messageItem) toDomain() *domain.Message {
	return &domain.Message{
		ID:               m.ID,
		ConversationID:   m.ConversationID,
		SenderType:       domain.SenderType(m.SenderType),
		Content:          m.Content,
		ChannelMessageID: m.ChannelMessageID,
		CreatedAt:        parseTime(m.CreatedAt),
	}
}

// mutationAttributes translates domain fields into stored attribute names and values.
func mutationAttributes(m domain.Mutation) (set map[string]string, remove []string) {
	set = make(map[string]string, len(m.Set)+2)
	for field, value := range m.Set {
		switch field {
		case domain.FieldStatus:
			status := value.(domain.Status)
			set["status"] = string(status)
			set[attrGSI1PK] = statusPK(status)
		case domain.FieldCurrentAgentID:
			set["current_agent_id"] = value.(string)
		case domain.FieldLastActive:
			at := formatTime(value.(time.Time))
			set["last_active"] = at
			set[attrGSI1SK] = at
		case domain.FieldEndedAt:
			set["ended_at"] = formatTime(value.(time.Time))
		}
	}
	for _, field := range m.Remove {
		remove = append(remove, string(field))
	}
	return set, remove
}
