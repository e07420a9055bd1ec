package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

type RawLesson struct {
	ClassNo    string `json:"classNo"`
	LessonType string `json:"lessonType"`
	Weeks      Weeks  `json:"weeks"`
	Day        string `json:"day"`
	StartTime  string `json:"startTime"`
	EndTime    string `json:"endTime"`
	Venue      string `json:"venue"`
	Size       int    `json:"size,omitempty"`
	CovidZone  string `json:"covidZone,omitempty"`
}

// WeekRange is a uniform interval of teaching weeks, Interval 1 means every
// week.
type WeekRange struct {
	Start    int `json:"start"`
	End      int `json:"end"`
	Interval int `json:"weekInterval,omitempty"`
}

// Weeks is either an explicit list of teaching weeks or a uniform
// interval.
type Weeks struct {
	List  []int
	Range *WeekRange
}

func (w Weeks) MarshalJSON() ([]byte, error) {
	if w.Range != nil {
		r := *w.Range
		if r.Interval == 1 {
			r.Interval = 0
		}
		return json.Marshal(r)
	}
	if w.List == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(w.List)
}

func (w *Weeks) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var r WeekRange
		err := json.Unmarshal(data, &r)
		if err != nil {
			return err
		}
		if r.Interval == 0 {
			r.Interval = 1
		}
		w.Range = &r
		w.List = nil
		return nil
	}
	w.Range = nil
	return json.Unmarshal(data, &w.List)
}

// Expand returns the explicit week numbers the lesson runs on.
func (w Weeks) Expand() []int {
	if w.Range == nil {
		return w.List
	}
	interval := w.Range.Interval
	if interval <= 0 {
		interval = 1
	}
	var out []int
	for week := w.Range.Start; week <= w.Range.End; week += interval {
		out = append(out, week)
	}
	return out
}

// Key is a stable identity of the set of weeks, two Weeks with the same
// Key run on the same weeks.
func (w Weeks) Key() string {
	weeks := w.Expand()
	parts := make([]string, len(weeks))
	for i, week := range weeks {
		parts[i] = strconv.Itoa(week)
	}
	return strings.Join(parts, ",")
}

func (l RawLesson) String() string {
	return fmt.Sprintf("%s %s %s %s-%s @ %s", l.LessonType, l.ClassNo, l.Day, l.StartTime, l.EndTime, l.Venue)
}
