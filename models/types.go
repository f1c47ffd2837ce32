// ABOUTME: Data models for calendar, task board and pipeline entities
// ABOUTME: Defines Event, Task, Lead, Deal, Notification and User plus their enum values
package models

import (
	"fmt"
	"strings"
	"time"
)

// Date and time layouts used in stored records.
const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

// Calendar grid bounds, inclusive.
const (
	FirstHour = 7
	LastHour  = 21
)

type EventType string

const (
	EventMeeting  EventType = "meeting"
	EventGeneral  EventType = "event"
	EventReminder EventType = "reminder"
)

// EventTypes lists valid event types in display order.
var EventTypes = []EventType{EventMeeting, EventGeneral, EventReminder}

func (t EventType) Valid() bool {
	switch t {
	case EventMeeting, EventGeneral, EventReminder:
		return true
	}
	return false
}

type Event struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Type      EventType `json:"type"`
	Date      string    `json:"date"`
	Start     string    `json:"start"`
	End       string    `json:"end"`
	Duration  string    `json:"duration,omitempty"`
	Desc      string    `json:"desc,omitempty"`
	Attendees string    `json:"attendees,omitempty"`
	Color     string    `json:"color,omitempty"`
}

// StartHour returns the hour of Start, or -1 if Start is not HH:MM.
func (e Event) StartHour() int {
	t, err := time.Parse(ClockLayout, e.Start)
	if err != nil {
		return -1
	}
	return t.Hour()
}

// StartsAt returns the event start in loc.
func (e Event) StartsAt(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout+" "+ClockLayout, e.Date+" "+e.Start, loc)
}

// EventColor maps an event type to its display color.
func EventColor(t EventType) string {
	switch t {
	case EventMeeting:
		return "bg-green-600"
	case EventGeneral:
		return "bg-blue-500"
	case EventReminder:
		return "bg-orange-500"
	default:
		return "bg-gray-500"
	}
}

// EndAfterStart returns start plus one hour as HH:MM. The duration label never affects it.
func EndAfterStart(start string) (string, error) {
	t, err := time.Parse(ClockLayout, start)
	if err != nil {
		return "", fmt.Errorf("invalid start %q: %w", start, err)
	}
	return fmt.Sprintf("%02d:%02d", t.Hour()+1, t.Minute()), nil
}

// ClockForHour formats an hour as HH:00.
func ClockForHour(hour int) string {
	return fmt.Sprintf("%02d:00", hour)
}

type Stage string

const (
	StageTodo       Stage = "To Do"
	StageInProgress Stage = "In Progress"
	StageReview     Stage = "Review"
	StageDone       Stage = "Done"
)

// Stages lists Kanban columns in board order.
var Stages = []Stage{StageTodo, StageInProgress, StageReview, StageDone}

func (s Stage) Valid() bool {
	for _, v := range Stages {
		if v == s {
			return true
		}
	}
	return false
}

// ParseStage matches a stage name case-insensitively, also accepting todo/in-progress style slugs.
func ParseStage(s string) (Stage, bool) {
	norm := strings.NewReplacer("-", " ", "_", " ").Replace(strings.ToLower(strings.TrimSpace(s)))
	for _, v := range Stages {
		if strings.ToLower(string(v)) == norm {
			return v, true
		}
	}
	if norm == "todo" {
		return StageTodo, true
	}
	return "", false
}

type Priority string

const (
	PriorityLow      Priority = "Low"
	PriorityMedium   Priority = "Medium"
	PriorityHigh     Priority = "High"
	PriorityCritical Priority = "Critical"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

func (p Priority) Valid() bool {
	for _, v := range Priorities {
		if v == p {
			return true
		}
	}
	return false
}

// ParsePriority matches a priority name case-insensitively.
func ParsePriority(s string) (Priority, bool) {
	for _, v := range Priorities {
		if strings.EqualFold(string(v), strings.TrimSpace(s)) {
			return v, true
		}
	}
	return "", false
}

// PriorityColor is the badge color assigned when a task is saved.
func PriorityColor(p Priority) string {
	switch p {
	case PriorityCritical:
		return "bg-purple-100 text-purple-600"
	case PriorityHigh:
		return "bg-red-100 text-red-600"
	default:
		return "bg-blue-100 text-blue-600"
	}
}

type Assignee struct {
	Initials string `json:"initials"`
	Color    string `json:"color"`
}

type Comment struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Author   string `json:"author"`
	Date     string `json:"date"`
	Initials string `json:"initials"`
}

type Attachment struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Size string `json:"size"`
	Date string `json:"date"`
	Type string `json:"type"`
	Data string `json:"data"`
}

// Activity holds a task's comment and attachment history, newest first.
// Comments and Attachments are legacy counters kept for records written before the lists existed.
type Activity struct {
	Comments        int          `json:"comments"`
	Attachments     int          `json:"attachments"`
	CommentsList    []Comment    `json:"commentsList"`
	AttachmentsList []Attachment `json:"attachmentsList"`
}

type Task struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Desc          string     `json:"desc"`
	Client        string     `json:"client"`
	Priority      Priority   `json:"priority"`
	PriorityColor string     `json:"priorityColor"`
	Stage         Stage      `json:"stage"`
	DueDate       string     `json:"dueDate,omitempty"`
	Assignee      []Assignee `json:"assignee"`
	Activity      Activity   `json:"activity"`
	Image         string     `json:"image,omitempty"`
	CreatedOn     string     `json:"createdOn"`
}

// Clone returns a deep copy so callers cannot alias stored slices.
func (t Task) Clone() Task {
	out := t
	if t.Assignee != nil {
		out.Assignee = append([]Assignee(nil), t.Assignee...)
	}
	if t.Activity.CommentsList != nil {
		out.Activity.CommentsList = append([]Comment{}, t.Activity.CommentsList...)
	}
	if t.Activity.AttachmentsList != nil {
		out.Activity.AttachmentsList = append([]Attachment{}, t.Activity.AttachmentsList...)
	}
	return out
}

// IsOverdue reports whether the due date is before today and the task is not done.
func (t Task) IsOverdue(today time.Time) bool {
	if t.Stage == StageDone || t.DueDate == "" {
		return false
	}
	due, err := time.ParseInLocation(DateLayout, t.DueDate, today.Location())
	if err != nil {
		return false
	}
	y, m, d := today.Date()
	return due.Before(time.Date(y, m, d, 0, 0, 0, 0, today.Location()))
}

type LeadStatus string

const (
	LeadNew        LeadStatus = "New"
	LeadOpened     LeadStatus = "Opened"
	LeadInterested LeadStatus = "Interested"
	LeadRejected   LeadStatus = "Rejected"
)

var LeadStatuses = []LeadStatus{LeadNew, LeadOpened, LeadInterested, LeadRejected}

func (s LeadStatus) Valid() bool {
	for _, v := range LeadStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Active reports whether the lead is still being worked.
func (s LeadStatus) Active() bool {
	return s == LeadNew || s == LeadOpened || s == LeadInterested
}

// InProgress reports whether the lead has been engaged.
func (s LeadStatus) InProgress() bool {
	return s == LeadOpened || s == LeadInterested
}

type Lead struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Company   string     `json:"company,omitempty"`
	Email     string     `json:"email,omitempty"`
	Phone     string     `json:"phone,omitempty"`
	Status    LeadStatus `json:"status"`
	Source    string     `json:"source,omitempty"`
	Value     float64    `json:"value,omitempty"`
	Owner     string     `json:"owner,omitempty"`
	CreatedOn string     `json:"createdOn"`
}

type DealStage string

const (
	DealQualification DealStage = "Qualification"
	DealProposal      DealStage = "Proposal"
	DealNegotiation   DealStage = "Negotiation"
	DealWon           DealStage = "Won"
	DealLost          DealStage = "Lost"
)

var DealStages = []DealStage{DealQualification, DealProposal, DealNegotiation, DealWon, DealLost}

func (s DealStage) Valid() bool {
	for _, v := range DealStages {
		if v == s {
			return true
		}
	}
	return false
}

// Closed reports whether the deal has been won or lost.
func (s DealStage) Closed() bool {
	return s == DealWon || s == DealLost
}

type Deal struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Client    string    `json:"client,omitempty"`
	Stage     DealStage `json:"stage"`
	Amount    float64   `json:"amount"`
	CloseDate string    `json:"closeDate,omitempty"`
	Owner     string    `json:"owner,omitempty"`
	CreatedOn string    `json:"createdOn"`
}

type NotificationType string

const (
	NotifySuccess NotificationType = "success"
	NotifyWarning NotificationType = "warning"
	NotifyError   NotificationType = "error"
	NotifyInfo    NotificationType = "info"
)

type Notification struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Type      NotificationType `json:"type"`
	CreatedAt time.Time        `json:"createdAt"`
}

type Role string

const (
	RoleAdmin   Role = "Admin"
	RoleManager Role = "Manager"
	RoleSales   Role = "Sales"
)

type User struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	Name         string `json:"name,omitempty"`
	Role         Role   `json:"role"`
	PasswordHash string `json:"passwordHash"`
}
