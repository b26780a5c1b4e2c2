package output

import (
	"harbortags/internal/rank"
	"time"
)

var pushed = time.Date(2024, 5, 1, 20, 30, 15, 0, time.UTC)

func sampleReport() *Report {
	return &Report{
		Repo: "demo",
		Projects: []ProjectResult{
			{
				Project: "svc",
				Status:  StatusOK,
				Fetched: 3,
				Tags: []rank.Label{
					{Rank: 1, Newest: true, Repo: "demo", Project: "svc", Tag: "v2", PushTime: pushed, Text: "newest: demo/svc v2"},
					{Rank: 2, Repo: "demo", Project: "svc", Tag: "v3", PushTime: pushed.Add(-time.Hour), Text: "No.2 : demo/svc v3"},
				},
			},
			{Project: "locked", Status: StatusDenied, Tags: []rank.Label{}},
			{Project: "broken", Status: StatusFailed, Error: "Harbor API request failed (500 Internal Server Error)"},
		},
	}
}
