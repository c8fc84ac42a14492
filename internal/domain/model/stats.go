package model

import "time"

// RecentActivity is one row of the operator dashboard's activity feed.
type RecentActivity struct {
	ID             string    `json:"id"`
	LastActivityAt time.Time `json:"lastActivityAt"`
	VisitorName    string    `json:"visitorName"`
	IsQualified    bool      `json:"isQualified"`
}

// Overview aggregates all conversations for the operator dashboard.
type Overview struct {
	TotalConversations        int              `json:"totalConversations"`
	QualifiedLeads            int              `json:"qualifiedLeads"`
	AppointmentsBooked        int              `json:"appointmentsBooked"`
	DealbreakersHit           int              `json:"dealbreakersHit"`
	AverageQualificationScore int              `json:"averageQualificationScore"`
	AverageMessageCount       int              `json:"averageMessageCount"`
	RecentActivity            []RecentActivity `json:"recentActivity"`
}
