package models

import (
	"time"
)

// User is a console operator contacts can be assigned to.
type User struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Email     string    `gorm:"type:varchar(255);uniqueIndex" json:"email"`
	Role      string    `gorm:"type:varchar(50);default:'agent'" json:"role"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// Contact represents a WhatsApp contact in the console's address book.
type Contact struct {
	ID              string     `gorm:"primaryKey" json:"id"`
	WaID            string     `gorm:"uniqueIndex;not null" json:"wa_id"` // WhatsApp ID (phone number)
	Name            string     `gorm:"type:varchar(255)" json:"name"`
	Phone           string     `gorm:"type:varchar(50)" json:"phone"`
	Email           string     `gorm:"type:varchar(255)" json:"email"`
	ProfilePicURL   string     `gorm:"type:text" json:"profile_pic_url"`
	Tags            string     `gorm:"type:text" json:"tags"` // JSON array of tag strings
	OptIn           bool       `gorm:"default:true" json:"opt_in"`
	Status          string     `gorm:"type:varchar(20);default:'new'" json:"status"` // new | in_progress | closed
	AssignedUserID  string     `gorm:"index" json:"assigned_user_id"`
	LastContactedAt *time.Time `json:"last_contacted_at"`
	Deleted         bool       `gorm:"default:false" json:"-"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Contact) TableName() string {
	return "contacts"
}

// Note is a free-form note an operator attached to a contact.
type Note struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ContactID string    `gorm:"index;not null" json:"contact_id"`
	AuthorID  string    `gorm:"index" json:"author_id"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Note) TableName() string {
	return "notes"
}

// Message is one chat message, inbound or outbound. Template messages store
// the tagged TEMPLATE: payload in Content; the rendered-form endpoint decodes
// it on read.
type Message struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Wamid     string    `gorm:"index" json:"wamid,omitempty"` // Meta's message id; delivery receipts reference it
	WaID      string    `gorm:"index;not null" json:"wa_id"`
	ContactID string    `gorm:"index" json:"contact_id"`
	Sender    string    `gorm:"not null" json:"sender"`
	Content   string    `gorm:"type:text" json:"content"`
	Type      string    `gorm:"type:varchar(50)" json:"type"` // text | template | image | ...
	Status    string    `gorm:"type:varchar(20)" json:"status"`
	Inbound   bool      `gorm:"default:false" json:"inbound"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Message) TableName() string {
	return "messages"
}

// Template is the stored form of a message template. Components holds the
// component array as JSON, the same shape Meta's sync endpoint returns.
type Template struct {
	ID         string    `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"type:varchar(255);uniqueIndex" json:"name"`
	Language   string    `gorm:"type:varchar(50)" json:"language"`
	Category   string    `gorm:"type:varchar(100)" json:"category"`
	Status     string    `gorm:"type:varchar(50)" json:"status"`
	Components string    `gorm:"type:text" json:"components"` // JSON components
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Template) TableName() string {
	return "templates"
}

// SystemSetting is a key/value pair persisted alongside the env config.
type SystemSetting struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Key   string `gorm:"uniqueIndex;not null" json:"key"`
	Value string `gorm:"type:text" json:"value"`
}

func (SystemSetting) TableName() string {
	return "system_settings"
}
