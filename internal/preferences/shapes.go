package preferences

import (
	"errors"

	"github.com/tidwall/gjson"
)

// errInvalidJSON is returned when a body is not JSON at all. A well-formed
// body in an unknown shape is not an error.
var errInvalidJSON = errors.New("response is not valid JSON")

// countShape recognises one encoding of the vacancy count.
type countShape struct {
	name  string
	match func(root gjson.Result) (gjson.Result, bool)
}

// countShapes is tried in order; the first match wins.
var countShapes = []countShape{
	{"number", func(root gjson.Result) (gjson.Result, bool) {
		return root, root.Type == gjson.Number
	}},
	{"total_vacancies", objectField("total_vacancies")},
	{"total", objectField("total")},
	{"count", objectField("count")},
}

func objectField(name string) func(gjson.Result) (gjson.Result, bool) {
	return func(root gjson.Result) (gjson.Result, bool) {
		if !root.IsObject() {
			return gjson.Result{}, false
		}
		v := root.Get(name)
		return v, v.Exists()
	}
}

// decodeTotal normalizes a count response. A missing or zero position_id
// falls back to requestedID. shape is empty when no matcher applied; the
// result is then zero vacancies.
func decodeTotal(body []byte, requestedID int) (result TotalVacancies, shape string, err error) {
	if !gjson.ValidBytes(body) {
		return TotalVacancies{}, "", errInvalidJSON
	}
	root := gjson.ParseBytes(body)
	result.PositionID = requestedID

	for _, s := range countShapes {
		v, ok := s.match(root)
		if !ok {
			continue
		}
		result.TotalVacancies = int(v.Int())
		if root.IsObject() {
			if id := root.Get("position_id").Int(); id != 0 {
				result.PositionID = int(id)
			}
		}
		return result, s.name, nil
	}
	return result, "", nil
}

// findList returns the catalog array: the root itself, or the first wrapper
// key holding an array.
func findList(body []byte, wrappers ...string) (gjson.Result, bool, error) {
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, false, errInvalidJSON
	}
	root := gjson.ParseBytes(body)
	if root.IsArray() {
		return root, true, nil
	}
	if root.IsObject() {
		for _, w := range wrappers {
			if v := root.Get(w); v.IsArray() {
				return v, true, nil
			}
		}
	}
	return gjson.Result{}, false, nil
}

// decodeIndustries accepts a bare array or one wrapped under "industries"
// or "data". ok is false for any other shape.
func decodeIndustries(body []byte) (out []Industry, ok bool, err error) {
	list, ok, err := findList(body, "industries", "data")
	if err != nil || !ok {
		return []Industry{}, ok, err
	}
	out = []Industry{}
	for _, e := range list.Array() {
		if !e.IsObject() {
			continue
		}
		out = append(out, Industry{
			ID:     e.Get("id").String(),
			Name:   e.Get("name").String(),
			NameEn: e.Get("name_en").String(),
		})
	}
	return out, true, nil
}

// decodeExperiences accepts the same wrappers as decodeIndustries (with
// "experiences" in place of "industries"). String elements are promoted to
// {id, name: id}.
func decodeExperiences(body []byte) (out []Experience, ok bool, err error) {
	list, ok, err := findList(body, "experiences", "data")
	if err != nil || !ok {
		return []Experience{}, ok, err
	}
	out = []Experience{}
	for _, e := range list.Array() {
		switch {
		case e.Type == gjson.String:
			out = append(out, Experience{ID: e.String(), Name: e.String()})
		case e.IsObject():
			out = append(out, Experience{
				ID:     e.Get("id").String(),
				Name:   e.Get("name").String(),
				NameEn: e.Get("name_en").String(),
			})
		}
	}
	return out, true, nil
}
