// Boxbox - Motorsport Telemetry Aggregation and Insight API
// Copyright 2026 M. Clarke (mclarke-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mclarke-dev/boxbox

package openf1

import "time"

// Session is one discrete track activity (practice, qualifying, sprint,
// race) within an event weekend.
type Session struct {
	SessionKey       int       `json:"session_key"`
	MeetingKey       int       `json:"meeting_key"`
	Location         string    `json:"location"`
	CountryName      string    `json:"country_name"`
	CountryCode      string    `json:"country_code"`
	CircuitShortName string    `json:"circuit_short_name"`
	SessionType      string    `json:"session_type"`
	SessionName      string    `json:"session_name"`
	DateStart        time.Time `json:"date_start"`
	DateEnd          time.Time `json:"date_end"`
	Year             int       `json:"year"`
}

// Meeting is an event weekend at one venue, containing multiple sessions.
type Meeting struct {
	MeetingKey          int       `json:"meeting_key"`
	MeetingName         string    `json:"meeting_name"`
	MeetingOfficialName string    `json:"meeting_official_name"`
	Location            string    `json:"location"`
	CountryName         string    `json:"country_name"`
	CountryCode         string    `json:"country_code"`
	CircuitShortName    string    `json:"circuit_short_name"`
	DateStart           time.Time `json:"date_start"`
	Year                int       `json:"year"`
}

// Driver is one competitor's roster entry, scoped to a session. The driver
// number is a small positive integer unique within the session.
type Driver struct {
	DriverNumber  int    `json:"driver_number"`
	NameAcronym   string `json:"name_acronym"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	FullName      string `json:"full_name"`
	BroadcastName string `json:"broadcast_name"`
	TeamName      string `json:"team_name"`
	TeamColour    string `json:"team_colour"`
	CountryCode   string `json:"country_code"`
	HeadshotURL   string `json:"headshot_url"`
	SessionKey    int    `json:"session_key"`
	MeetingKey    int    `json:"meeting_key"`
}

// Lap is one timed lap. Duration fields are nil when the lap has no
// recorded time (first lap of a session, red-flagged laps).
type Lap struct {
	DriverNumber    int        `json:"driver_number"`
	LapNumber       int        `json:"lap_number"`
	LapDuration     *float64   `json:"lap_duration"`
	DateStart       *time.Time `json:"date_start"`
	DurationSector1 *float64   `json:"duration_sector_1"`
	DurationSector2 *float64   `json:"duration_sector_2"`
	DurationSector3 *float64   `json:"duration_sector_3"`
	STSpeed         *float64   `json:"st_speed"`
	IsPitOutLap     bool       `json:"is_pit_out_lap"`
	SessionKey      int        `json:"session_key"`
}

// PitStop is one pit lane visit.
type PitStop struct {
	DriverNumber int       `json:"driver_number"`
	LapNumber    int       `json:"lap_number"`
	PitDuration  *float64  `json:"pit_duration"`
	Date         time.Time `json:"date"`
	SessionKey   int       `json:"session_key"`
}

// Stint is a continuous run on one set of tyres between pit stops.
type Stint struct {
	DriverNumber   int    `json:"driver_number"`
	StintNumber    int    `json:"stint_number"`
	Compound       string `json:"compound"`
	LapStart       int    `json:"lap_start"`
	LapEnd         int    `json:"lap_end"`
	TyreAgeAtStart int    `json:"tyre_age_at_start"`
	SessionKey     int    `json:"session_key"`
}

// Weather is one trackside weather sample.
type Weather struct {
	AirTemperature   float64   `json:"air_temperature"`
	TrackTemperature float64   `json:"track_temperature"`
	Humidity         float64   `json:"humidity"`
	Pressure         float64   `json:"pressure"`
	Rainfall         float64   `json:"rainfall"`
	WindDirection    float64   `json:"wind_direction"`
	WindSpeed        float64   `json:"wind_speed"`
	Date             time.Time `json:"date"`
	SessionKey       int       `json:"session_key"`
}

// RaceControlMessage is one race control event. DriverNumber and LapNumber
// are nil for undirected, session-wide messages.
type RaceControlMessage struct {
	Category     string    `json:"category"`
	Flag         string    `json:"flag"`
	Scope        string    `json:"scope"`
	Message      string    `json:"message"`
	DriverNumber *int      `json:"driver_number"`
	LapNumber    *int      `json:"lap_number"`
	Sector       *int      `json:"sector"`
	Date         time.Time `json:"date"`
	SessionKey   int       `json:"session_key"`
}

// TeamRadio is one pit-to-car radio exchange.
type TeamRadio struct {
	DriverNumber int       `json:"driver_number"`
	RecordingURL string    `json:"recording_url"`
	Date         time.Time `json:"date"`
	SessionKey   int       `json:"session_key"`
}

// SessionResult is one driver's final classification line.
type SessionResult struct {
	Position     *int      `json:"position"`
	DriverNumber int       `json:"driver_number"`
	NumberOfLaps int       `json:"number_of_laps"`
	DNF          bool      `json:"dnf"`
	DNS          bool      `json:"dns"`
	DSQ          bool      `json:"dsq"`
	GapToLeader  any       `json:"gap_to_leader"`
	Duration     any       `json:"duration"`
	MeetingKey   int       `json:"meeting_key"`
	SessionKey   int       `json:"session_key"`
	Date         time.Time `json:"date,omitempty"`
}

// GridPosition is one driver's starting grid slot.
type GridPosition struct {
	Position     int      `json:"position"`
	DriverNumber int      `json:"driver_number"`
	LapDuration  *float64 `json:"lap_duration"`
	MeetingKey   int      `json:"meeting_key"`
	SessionKey   int      `json:"session_key"`
}

// PositionSnapshot is one timestamped running-order entry.
type PositionSnapshot struct {
	DriverNumber int       `json:"driver_number"`
	Position     int       `json:"position"`
	Date         time.Time `json:"date"`
	MeetingKey   int       `json:"meeting_key"`
	SessionKey   int       `json:"session_key"`
}

// Overtake is one on-track pass. Elevated-tier resource; requires a bearer
// token.
type Overtake struct {
	OvertakingDriverNumber int       `json:"overtaking_driver_number"`
	OvertakenDriverNumber  int       `json:"overtaken_driver_number"`
	Position               int       `json:"position"`
	Date                   time.Time `json:"date"`
	SessionKey             int       `json:"session_key"`
}

// CarData is one car telemetry sample (~3.7 Hz upstream).
type CarData struct {
	DriverNumber int       `json:"driver_number"`
	Speed        float64   `json:"speed"`
	RPM          float64   `json:"rpm"`
	Throttle     float64   `json:"throttle"`
	Brake        float64   `json:"brake"`
	DRS          int       `json:"drs"`
	NGear        int       `json:"n_gear"`
	Date         time.Time `json:"date"`
	SessionKey   int       `json:"session_key"`
}
