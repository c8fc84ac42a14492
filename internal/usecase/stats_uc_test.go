//go:build !integration

// File: internal/usecase/stats_uc_test.go
package usecase

import (
	"context"
	"testing"
	"time"

	"ai-doppelganger/internal/domain/model"
)

func seedConversation(t *testing.T, repo *memConversationRepo, id string, age time.Duration, mutate func(*model.Conversation)) {
	t.Helper()
	c := model.NewConversation(id, "sid-"+id, model.VisitorInfo{})
	if mutate != nil {
		mutate(c)
	}
	c.LastActivityAt = time.Now().Add(-age)
	if err := repo.Save(context.Background(), c); err != nil {
		t.Fatal(err)
	}
}

func TestStatsOverview(t *testing.T) {
	t.Parallel()
	repo := newMemConversationRepo()

	seedConversation(t, repo, "a", time.Minute, func(c *model.Conversation) {
		c.QualificationScore = 80
		c.IsQualified = true
		c.AppointmentBooked = true
		c.VisitorInfo.Name = "Jane Doe"
		c.AddMessage("m1", model.RoleUser, "hi")
		c.AddMessage("m2", model.RoleAssistant, "hello")
	})
	seedConversation(t, repo, "b", 2*time.Minute, func(c *model.Conversation) {
		c.QualificationScore = 30
		c.DealbreakersHit = []string{"Location: california"}
	})
	seedConversation(t, repo, "c", 3*time.Minute, func(c *model.Conversation) {
		c.QualificationScore = 10
		c.AddMessage("m1", model.RoleUser, "hi")
	})

	uc := NewStatsUseCase(repo, testLogger())
	o, err := uc.Overview(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if o.TotalConversations != 3 {
		t.Fatalf("total = %d", o.TotalConversations)
	}
	if o.QualifiedLeads != 1 || o.AppointmentsBooked != 1 || o.DealbreakersHit != 1 {
		t.Fatalf("counts = %d/%d/%d", o.QualifiedLeads, o.AppointmentsBooked, o.DealbreakersHit)
	}
	// (80+30+10)/3 = 40, (2+0+1)/3 rounds to 1.
	if o.AverageQualificationScore != 40 {
		t.Fatalf("avg score = %d", o.AverageQualificationScore)
	}
	if o.AverageMessageCount != 1 {
		t.Fatalf("avg messages = %d", o.AverageMessageCount)
	}
	if len(o.RecentActivity) != 3 {
		t.Fatalf("recent = %d", len(o.RecentActivity))
	}
	if o.RecentActivity[0].VisitorName != "Jane Doe" {
		t.Fatalf("most recent = %+v", o.RecentActivity[0])
	}
}

func TestStatsOverview_Empty(t *testing.T) {
	t.Parallel()
	uc := NewStatsUseCase(newMemConversationRepo(), testLogger())
	o, err := uc.Overview(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if o.TotalConversations != 0 || o.AverageQualificationScore != 0 {
		t.Fatalf("empty overview = %+v", o)
	}
	if o.RecentActivity == nil || len(o.RecentActivity) != 0 {
		t.Fatal("recentActivity must serialize as an empty array")
	}
}
