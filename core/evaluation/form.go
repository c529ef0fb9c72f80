package evaluation

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/observa/core"
)

const (
	invalidRatingText = "rating must be a whole number"
	invalidDateText   = "invalid date"
)

var (
	// communications0, communications_comment0, ... Indexes with leading zeros are not criteria.
	flatRatingKey = regexp.MustCompile(`^(communications|management|assessment)(_comment)?(0|[1-9]\d*)$`)

	dateLayouts = []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"2006-01-02",
	}
	truthyValues = []string{"1", "true", "on", "yes", "y", "checked"}
)

// NormalizePayload builds a Form out of a decoded form or JSON payload.
//
// Ratings are accepted as flat keys ("communications0", "communications_comment0"), as a nested
// category -> index -> {rating, comment} structure (objects or arrays), or as bracketed form keys
// ("communications[0][rating]"). Criteria without a rating are left out of Form.Ratings.
// Malformed ratings and dates are reported together as a *core.ValidationError.
func NormalizePayload(payload map[string]interface{}) (Form, error) {
	p := &payloadReader{data: expandBracketKeys(payload)}
	form := Form{
		Header: Header{
			TeacherID:         p.str("teacher_id"),
			AcademicYear:      p.str("academic_year"),
			Semester:          p.str("semester"),
			SubjectObserved:   p.str("subject_observed"),
			ObservationDate:   p.date("observation_date"),
			ObservationType:   ObservationType(strings.ToLower(p.str("observation_type"))),
			SeatPlan:          p.flag("seat_plan"),
			CourseSyllabi:     p.flag("course_syllabi"),
			OthersRequirement: p.flag("others_requirement"),
			OthersSpecify:     p.str("others_specify"),
		},
		Ratings: p.ratings(),
		Qualitative: Qualitative{
			Strengths:          p.str("strengths"),
			ImprovementAreas:   p.str("improvement_areas"),
			Recommendations:    p.str("recommendations"),
			Agreement:          p.str("agreement"),
			RaterPrintedName:   p.str("rater_printed_name"),
			RaterSignature:     p.str("rater_signature"),
			RaterDate:          p.date("rater_date"),
			FacultyPrintedName: p.str("faculty_printed_name"),
			FacultySignature:   p.str("faculty_signature"),
			FacultyDate:        p.date("faculty_date"),
		},
	}
	if len(p.errs) > 0 {
		return form, core.NewValidationError(nil, p.errs...)
	}
	return form, nil
}

type payloadReader struct {
	data map[string]interface{}
	errs []core.FieldError
}

func (p *payloadReader) str(key string) string {
	return core.CleanString(toString(p.data[key]))
}

func (p *payloadReader) flag(key string) bool {
	switch v := p.data[key].(type) {
	case bool:
		return v
	case float64:
		return v != 0
	}
	return core.ContainsFold(truthyValues, toString(p.data[key]))
}

func (p *payloadReader) date(key string) null.Time {
	s := p.str(key)
	if s == "" {
		return null.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return null.TimeFrom(t.UTC())
		}
	}
	p.errs = append(p.errs, core.FieldError{Field: key, Error: invalidDateText})
	return null.Time{}
}

type rawRating struct {
	value   interface{}
	comment string
}

func (p *payloadReader) ratings() Ratings {
	raw := make(map[criterionKey]*rawRating)
	get := func(cat Category, idx int) *rawRating {
		key := criterionKey{cat, idx}
		if raw[key] == nil {
			raw[key] = new(rawRating)
		}
		return raw[key]
	}

	// flat keys
	for key, v := range p.data {
		m := flatRatingKey.FindStringSubmatch(key)
		if m == nil {
			continue
		}
		idx, err := strconv.Atoi(m[3])
		if err != nil {
			continue
		}
		rr := get(Category(m[1]), idx)
		if m[2] == "" {
			rr.value = v
		} else {
			rr.comment = core.CleanString(toString(v))
		}
	}

	// nested structures
	setEntry := func(cat Category, idx int, entry interface{}) {
		switch e := entry.(type) {
		case nil:
		case map[string]interface{}:
			rr := get(cat, idx)
			if v, ok := e["rating"]; ok {
				rr.value = v
			}
			if c, ok := e["comment"]; ok {
				rr.comment = core.CleanString(toString(c))
			}
		default:
			get(cat, idx).value = e
		}
	}
	for _, cat := range Categories {
		switch nested := p.data[string(cat)].(type) {
		case map[string]interface{}:
			for k, entry := range nested {
				if idx, ok := parseIndex(k); ok {
					setEntry(cat, idx, entry)
				}
			}
		case []interface{}:
			for idx, entry := range nested {
				setEntry(cat, idx, entry)
			}
		}
	}

	ratings := make(Ratings)
	for key, rr := range raw {
		s := core.CleanString(toString(rr.value))
		if s == "" {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			f, fErr := strconv.ParseFloat(s, 64)
			if fErr != nil || f != math.Trunc(f) {
				p.errs = append(p.errs, core.FieldError{Field: ratingField(key.category, key.index), Error: invalidRatingText})
				continue
			}
			n = int(f)
		}
		ratings.Set(key.category, key.index, Rating{Value: n, Comment: rr.comment})
	}
	return ratings
}

// parseIndex only accepts the canonical form of an index: "00" or "+1" are not criteria.
func parseIndex(s string) (int, bool) {
	s = strings.TrimSpace(s)
	idx, err := strconv.Atoi(s)
	if err != nil || strconv.Itoa(idx) != s {
		return 0, false
	}
	return idx, true
}

func ratingField(cat Category, idx int) string {
	return fmt.Sprintf("%s%d", cat, idx)
}

// toString renders scalar payload values. Multi-valued form fields yield their last value.
func toString(v interface{}) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case []string:
		if len(v) == 0 {
			return ""
		}
		return v[len(v)-1]
	case []interface{}:
		if len(v) == 0 {
			return ""
		}
		return toString(v[len(v)-1])
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	case map[string]interface{}:
		return ""
	}
	return fmt.Sprint(v)
}

// expandBracketKeys turns "a[b][c]" keys into nested maps. Other keys are copied as is.
func expandBracketKeys(payload map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(payload))
	var bracketed []string
	for key, v := range payload {
		if isBracketKey(key) {
			bracketed = append(bracketed, key)
			continue
		}
		out[key] = v
	}
	for _, key := range bracketed {
		i := strings.IndexByte(key, '[')
		parts := append([]string{key[:i]}, strings.Split(key[i+1:len(key)-1], "][")...)
		cur := out
		for _, part := range parts[:len(parts)-1] {
			next, ok := cur[part].(map[string]interface{})
			if !ok {
				next = make(map[string]interface{})
				cur[part] = next
			}
			cur = next
		}
		cur[parts[len(parts)-1]] = payload[key]
	}
	return out
}

func isBracketKey(key string) bool {
	i := strings.IndexByte(key, '[')
	return i > 0 && strings.HasSuffix(key, "]")
}
