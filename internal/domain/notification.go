package domain

type AttachmentKind string

const (
	AttachmentPhoto    AttachmentKind = "photo"
	AttachmentDocument AttachmentKind = "document"
)

type Attachment struct {
	Kind AttachmentKind
	Ref  string
}

// Action is an inline button attached to a notification.
type Action struct {
	Label string
	Data  string
}

type Notification struct {
	ChatID     int64
	Text       string
	Attachment *Attachment
	Actions    []Action
}
