// ABOUTME: Known-good seed data written when a collection is missing or unreadable
// ABOUTME: Calendar seeds are relative to today; task and pipeline seeds are fixed
package store

import (
	"time"

	"github.com/manvote/crmdesk/models"
)

// SeedEvents returns the starter calendar for the day containing now.
func SeedEvents(now time.Time) []models.Event {
	today := now.Format(models.DateLayout)
	tomorrow := now.AddDate(0, 0, 1).Format(models.DateLayout)

	return []models.Event{
		{
			ID: "1", Title: "Client Meeting", Type: models.EventMeeting,
			Date: today, Start: "10:00", End: "11:00", Duration: DefaultDuration,
			Desc: "Discuss project requirements", Color: "bg-green-500",
		},
		{
			ID: "2", Title: "Team Sync", Type: models.EventGeneral,
			Date: today, Start: "13:00", End: "14:00", Duration: DefaultDuration,
			Desc: "Weekly sync up", Color: "bg-blue-400",
		},
		{
			ID: "3", Title: "Project Review", Type: models.EventMeeting,
			Date: tomorrow, Start: "14:00", End: "15:00", Duration: DefaultDuration,
			Desc: "Review Q4 goals", Color: "bg-green-600",
		},
	}
}

// SeedTasks returns the starter task board.
func SeedTasks() []models.Task {
	return []models.Task{
		{
			ID:            "1",
			Title:         "Client Meeting Preparation",
			Desc:          "Prepare presentation slides and gathering requirements for Acme Corp.",
			Client:        "Acme Corp",
			Priority:      models.PriorityHigh,
			PriorityColor: "bg-red-100 text-red-600",
			Stage:         models.StageTodo,
			DueDate:       "2025-11-20",
			Activity:      models.Activity{Comments: 2, Attachments: 1},
			Assignee:      []models.Assignee{{Initials: "JD", Color: "bg-blue-500"}},
			CreatedOn:     "2025-10-12T10:00:00Z",
		},
		{
			ID:            "2",
			Title:         "Update API Documentation",
			Desc:          "Review and update the endpoint documentation for the Q3 release.",
			Client:        "Internal",
			Priority:      models.PriorityMedium,
			PriorityColor: "bg-yellow-100 text-yellow-600",
			Stage:         models.StageInProgress,
			DueDate:       "2025-11-25",
			Assignee:      []models.Assignee{{Initials: "AS", Color: "bg-green-500"}},
			CreatedOn:     "2025-10-15T11:30:00Z",
		},
		{
			ID:            "3",
			Title:         "Fix Navigation Bug",
			Desc:          "Navigation menu closes unexpectedly on mobile devices.",
			Client:        "Globex Inc",
			Priority:      models.PriorityCritical,
			PriorityColor: "bg-purple-100 text-purple-600",
			Stage:         models.StageReview,
			DueDate:       "2025-12-01",
			Activity:      models.Activity{Comments: 5, Attachments: 2},
			Assignee:      []models.Assignee{{Initials: "MK", Color: "bg-red-500"}},
			CreatedOn:     "2025-10-20T14:00:00Z",
		},
		{
			ID:            "4",
			Title:         "Design System Audit",
			Desc:          "Check consistency of button styles across all pages.",
			Client:        "Internal",
			Priority:      models.PriorityLow,
			PriorityColor: "bg-blue-100 text-blue-600",
			Stage:         models.StageDone,
			DueDate:       "2025-12-10",
			Activity:      models.Activity{Comments: 1},
			Assignee:      []models.Assignee{{Initials: "BP", Color: "bg-indigo-500"}},
			CreatedOn:     "2025-10-22T16:45:00Z",
		},
	}
}

// SeedLeads returns a small sample pipeline.
func SeedLeads() []models.Lead {
	return []models.Lead{
		{ID: "1", Name: "Priya Raman", Company: "Acme Corp", Email: "priya@acme.example", Status: models.LeadInterested, Source: "Linkedin", Value: 5000000, Owner: "Sales", CreatedOn: "2025-10-01"},
		{ID: "2", Name: "Tom Becker", Company: "Globex Inc", Email: "tom@globex.example", Status: models.LeadOpened, Source: "Website", Value: 1200000, Owner: "Sales", CreatedOn: "2025-10-04"},
		{ID: "3", Name: "Lena Ortiz", Company: "Initech", Email: "lena@initech.example", Status: models.LeadNew, Source: "Referral", Value: 800000, Owner: "Manager", CreatedOn: "2025-10-09"},
		{ID: "4", Name: "Omar Haddad", Company: "Umbrella", Email: "omar@umbrella.example", Status: models.LeadRejected, Source: "Cold call", Value: 300000, Owner: "Sales", CreatedOn: "2025-10-11"},
	}
}

// SeedDeals returns deals spread across the pipeline stages.
func SeedDeals() []models.Deal {
	return []models.Deal{
		{ID: "1", Title: "Acme annual license", Client: "Acme Corp", Stage: models.DealProposal, Amount: 50000, CloseDate: "2025-12-15", Owner: "Sales", CreatedOn: "2025-10-02"},
		{ID: "2", Title: "Globex onboarding", Client: "Globex Inc", Stage: models.DealNegotiation, Amount: 18000, CloseDate: "2025-11-30", Owner: "Sales", CreatedOn: "2025-10-05"},
		{ID: "3", Title: "Initech pilot", Client: "Initech", Stage: models.DealQualification, Amount: 7500, Owner: "Manager", CreatedOn: "2025-10-10"},
		{ID: "4", Title: "Hooli renewal", Client: "Hooli", Stage: models.DealWon, Amount: 32000, CloseDate: "2025-09-30", Owner: "Sales", CreatedOn: "2025-08-20"},
		{ID: "5", Title: "Umbrella expansion", Client: "Umbrella", Stage: models.DealLost, Amount: 12000, CloseDate: "2025-10-12", Owner: "Sales", CreatedOn: "2025-09-01"},
	}
}
