package domain

import "time"

// StudySession is one study attempt over a module.
type StudySession struct {
	ID             string     `json:"id"`
	UserID         string     `json:"userId"`
	ModuleID       string     `json:"moduleId"`
	SubModuleID    string     `json:"subModuleId,omitempty"`
	StartTime      time.Time  `json:"startTime"`
	EndTime        *time.Time `json:"endTime,omitempty"`
	CardsStudied   int        `json:"cardsStudied"`
	CorrectCount   int        `json:"correctCount"`
	IncorrectCount int        `json:"incorrectCount"`
}

// Ended reports whether the session has been finalized.
func (s StudySession) Ended() bool { return s.EndTime != nil }

// SessionCounts is the aggregate persisted when a session completes.
type SessionCounts struct {
	CardsStudied   int `json:"cardsStudied"`
	CorrectCount   int `json:"correctCount"`
	IncorrectCount int `json:"incorrectCount"`
}

// StudyRecord is one rating event inside a session. Records are append-only.
type StudyRecord struct {
	ID        string        `json:"id"`
	SessionID string        `json:"sessionId"`
	CardID    string        `json:"cardId"`
	Rating    int           `json:"rating"`
	IsCorrect bool          `json:"isCorrect"`
	TimeSpent time.Duration `json:"timeSpent,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
}

// SessionHistoryEntry is a completed session joined with its module.
type SessionHistoryEntry struct {
	StudySession
	ModuleNumber string `json:"moduleNumber"`
	ModuleTitle  string `json:"moduleTitle"`
}

// StudyStats summarises a user's completed sessions.
type StudyStats struct {
	TotalStudyMinutes int `json:"totalStudyTime"`
	TotalCardsStudied int `json:"totalCardsStudied"`
	CorrectPercentage int `json:"correctPercentage"`
	CardsMastered     int `json:"cardsMastered"`
	SessionCount      int `json:"sessionCount"`
	StreakDays        int `json:"streakDays"`
}
