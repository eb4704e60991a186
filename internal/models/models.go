package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SelectionSize is the number of ranked runners in a selection and in an official result.
const SelectionSize = 10

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type User struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	ExternalID     string    `gorm:"size:128;not null;uniqueIndex" json:"-"`
	Email          string    `gorm:"size:254;not null;default:''" json:"email"`
	Name           string    `gorm:"size:128" json:"name"`
	Nickname       *string   `gorm:"size:32" json:"nickname"`
	ProfilePicture *string   `gorm:"size:255" json:"profilePicture"`
	Role           Role      `gorm:"size:16;not null;default:user" json:"role"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}

// DisplayName prefers the nickname over the provider display name.
func (u User) DisplayName() string {
	if u.Nickname != nil && strings.TrimSpace(*u.Nickname) != "" {
		return *u.Nickname
	}
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

type Runner struct {
	ID              string    `gorm:"primaryKey;size:36" json:"id"`
	Firstname       string    `gorm:"size:64;not null" json:"firstname"`
	Lastname        string    `gorm:"size:64;not null" json:"lastname"`
	Gender          string    `gorm:"size:16" json:"gender"`
	Distance        string    `gorm:"size:32" json:"distance"`
	Category        string    `gorm:"size:32" json:"category"`
	Instagram       *string   `gorm:"size:128" json:"instagram"`
	Strava          *string   `gorm:"size:128" json:"strava"`
	DUV             *string   `gorm:"column:duv;size:128" json:"duv"`
	UTMB            *string   `gorm:"column:utmb;size:128" json:"utmb"`
	ITRA            *string   `gorm:"column:itra;size:128" json:"itra"`
	NEDA            *string   `gorm:"column:neda;size:128" json:"neda"`
	ProfilePicture  *string   `gorm:"size:255" json:"profilePicture"`
	ClaimedByUserID *string   `gorm:"size:36;index" json:"claimedByUserId"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (r *Runner) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

func (r Runner) FullName() string {
	return strings.TrimSpace(r.Firstname + " " + r.Lastname)
}

type RaceStatus string

const (
	RaceUpcoming RaceStatus = "upcoming"
	RaceFinished RaceStatus = "finished"
)

func (s RaceStatus) Valid() bool {
	return s == RaceUpcoming || s == RaceFinished
}

// Phase is the lifecycle position of a race as seen by players.
type Phase string

const (
	PhaseUpcoming Phase = "upcoming"
	PhaseStarted  Phase = "started"
	PhaseScored   Phase = "scored"
)

type Race struct {
	ID        string     `gorm:"primaryKey;size:36" json:"id"`
	Name      string     `gorm:"size:128;not null" json:"name"`
	Date      time.Time  `gorm:"not null;index" json:"date"`
	Status    RaceStatus `gorm:"size:16;not null;default:upcoming" json:"status"`
	Runners   []Runner   `gorm:"many2many:race_runners;" json:"-"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func (r *Race) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// Started reports whether selections for the race are frozen at now.
func (r Race) Started(now time.Time) bool {
	return !now.Before(r.Date)
}

func (r Race) Phase(now time.Time, scored bool) Phase {
	switch {
	case scored:
		return PhaseScored
	case r.Started(now):
		return PhaseStarted
	default:
		return PhaseUpcoming
	}
}

// Selection is one ranked pick. A user has either zero or SelectionSize rows per race.
type Selection struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    string    `gorm:"size:36;not null;index:idx_selection_rank,unique,priority:1;index:idx_selection_runner,unique,priority:1" json:"userId"`
	RaceID    string    `gorm:"size:36;not null;index:idx_selection_rank,unique,priority:2;index:idx_selection_runner,unique,priority:2" json:"raceId"`
	RunnerID  string    `gorm:"size:36;not null;index:idx_selection_runner,unique,priority:3" json:"runnerId"`
	Rank      int       `gorm:"not null;index:idx_selection_rank,unique,priority:3" json:"rank"`
	User      *User     `gorm:"foreignKey:UserID" json:"-"`
	Runner    *Runner   `gorm:"foreignKey:RunnerID" json:"runner"`
	CreatedAt time.Time `json:"createdAt"`
}

func (s *Selection) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// OfficialResult holds the finishing order of the first SelectionSize runners.
type OfficialResult struct {
	ID        string         `gorm:"primaryKey;size:36" json:"id"`
	RaceID    string         `gorm:"size:36;not null;uniqueIndex" json:"raceId"`
	Top10     datatypes.JSON `gorm:"column:top10;not null" json:"top10"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

func (r *OfficialResult) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

func NewOfficialResult(raceID string, top10 []string) (OfficialResult, error) {
	raw, err := json.Marshal(top10)
	if err != nil {
		return OfficialResult{}, fmt.Errorf("encode top10: %w", err)
	}
	return OfficialResult{RaceID: raceID, Top10: datatypes.JSON(raw)}, nil
}

// RunnerIDs decodes the stored finishing order.
func (r OfficialResult) RunnerIDs() ([]string, error) {
	var ids []string
	if len(r.Top10) == 0 {
		return ids, nil
	}
	if err := json.Unmarshal(r.Top10, &ids); err != nil {
		return nil, fmt.Errorf("decode top10 for race %s: %w", r.RaceID, err)
	}
	return ids, nil
}
