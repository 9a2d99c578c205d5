package preferences

import (
	"errors"
	"testing"
)

func TestDecodeTotal(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantTotal int
		wantPos   int
		wantShape string
	}{
		{"bare number", `7`, 7, 5, "number"},
		{"total_vacancies", `{"total_vacancies":42,"position_id":5}`, 42, 5, "total_vacancies"},
		{"total_vacancies other position", `{"total_vacancies":3,"position_id":9}`, 3, 9, "total_vacancies"},
		{"zero position falls back", `{"total_vacancies":3,"position_id":0}`, 3, 5, "total_vacancies"},
		{"total", `{"total":11}`, 11, 5, "total"},
		{"count", `{"count":7}`, 7, 5, "count"},
		{"total_vacancies wins over count", `{"count":1,"total_vacancies":2}`, 2, 5, "total_vacancies"},
		{"total wins over count", `{"count":1,"total":2}`, 2, 5, "total"},
		{"unknown object", `{"foo":1}`, 0, 5, ""},
		{"array", `[1,2]`, 0, 5, ""},
		{"string", `"7"`, 0, 5, ""},
		{"null", `null`, 0, 5, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, shape, err := decodeTotal([]byte(tt.body), 5)
			if err != nil {
				t.Fatalf("decodeTotal(%s) error: %v", tt.body, err)
			}
			if got.TotalVacancies != tt.wantTotal {
				t.Errorf("TotalVacancies = %d, want %d", got.TotalVacancies, tt.wantTotal)
			}
			if got.PositionID != tt.wantPos {
				t.Errorf("PositionID = %d, want %d", got.PositionID, tt.wantPos)
			}
			if shape != tt.wantShape {
				t.Errorf("shape = %q, want %q", shape, tt.wantShape)
			}
		})
	}
}

func TestDecodeTotal_InvalidJSON(t *testing.T) {
	if _, _, err := decodeTotal([]byte(`{not json`), 5); !errors.Is(err, errInvalidJSON) {
		t.Errorf("err = %v, want errInvalidJSON", err)
	}
}

func TestDecodeIndustries(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantOK  bool
		wantIDs []string
	}{
		{"bare array", `[{"id":"it","name":"IT"}]`, true, []string{"it"}},
		{"industries wrapper", `{"industries":[{"id":"it","name":"IT"},{"id":"d","name":"D"}]}`, true, []string{"it", "d"}},
		{"data wrapper", `{"data":[{"id":"x","name":"X"}]}`, true, []string{"x"}},
		{"numeric ids", `[{"id":7,"name":"Seven"}]`, true, []string{"7"}},
		{"empty array", `[]`, true, []string{}},
		{"unknown", `{"items":[{"id":"it"}]}`, false, []string{}},
		{"wrapper not array", `{"industries":{"id":"it"}}`, false, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := decodeIndustries([]byte(tt.body))
			if err != nil {
				t.Fatalf("decodeIndustries error: %v", err)
			}
			if ok != tt.wantOK {
				t.Errorf("ok = %v, want %v", ok, tt.wantOK)
			}
			if got == nil {
				t.Fatal("decodeIndustries returned nil slice")
			}
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("len = %d, want %d (%+v)", len(got), len(tt.wantIDs), got)
			}
			for i, id := range tt.wantIDs {
				if got[i].ID != id {
					t.Errorf("[%d].ID = %q, want %q", i, got[i].ID, id)
				}
			}
		})
	}
}

func TestDecodeIndustries_NameEn(t *testing.T) {
	got, _, _ := decodeIndustries([]byte(`[{"id":"it","name":"Программист, разработчик","name_en":"Software developer"}]`))
	if got[0].Name != "Программист, разработчик" || got[0].NameEn != "Software developer" {
		t.Errorf("decoded = %+v", got[0])
	}
}

func TestDecodeExperiences(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []Experience
	}{
		{
			"strings promoted",
			`["junior","middle"]`,
			[]Experience{{ID: "junior", Name: "junior"}, {ID: "middle", Name: "middle"}},
		},
		{
			"objects",
			`[{"id":"noExperience","name":"Нет опыта","name_en":"No experience"}]`,
			[]Experience{{ID: "noExperience", Name: "Нет опыта", NameEn: "No experience"}},
		},
		{
			"experiences wrapper with strings",
			`{"experiences":["between1And3"]}`,
			[]Experience{{ID: "between1And3", Name: "between1And3"}},
		},
		{
			"data wrapper",
			`{"data":[{"id":"moreThan6","name":"6+"}]}`,
			[]Experience{{ID: "moreThan6", Name: "6+"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := decodeExperiences([]byte(tt.body))
			if err != nil || !ok {
				t.Fatalf("decodeExperiences = ok %v, err %v", ok, err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("[%d] = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestDecodeExperiences_UnknownShape(t *testing.T) {
	got, ok, err := decodeExperiences([]byte(`{"levels":[]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok || len(got) != 0 {
		t.Errorf("got %v, ok %v; want empty, false", got, ok)
	}
}
