package domain

type ConversationKind string

const (
	ConversationKindDirect  ConversationKind = "direct"
	ConversationKindGroup   ConversationKind = "group"
	ConversationKindChannel ConversationKind = "channel"
)

type MessageKind string

const (
	MessageKindText   MessageKind = "text"
	MessageKindFile   MessageKind = "file"
	MessageKindSystem MessageKind = "system"
)

type NotificationKind string

const (
	NotificationKindMessage  NotificationKind = "message"
	NotificationKindMention  NotificationKind = "mention"
	NotificationKindReaction NotificationKind = "reaction"
	NotificationKindSystem   NotificationKind = "system"
)

type NotificationPriority string

const (
	NotificationPriorityLow    NotificationPriority = "low"
	NotificationPriorityMedium NotificationPriority = "medium"
	NotificationPriorityHigh   NotificationPriority = "high"
)
