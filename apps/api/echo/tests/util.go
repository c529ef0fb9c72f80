package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/volatiletech/null/v8"

	echoapi "github.com/trezcool/observa/apps/api/echo"
	"github.com/trezcool/observa/core"
	"github.com/trezcool/observa/core/evaluation"
	"github.com/trezcool/observa/core/teacher"
	"github.com/trezcool/observa/core/user"
	sqlxrepos "github.com/trezcool/observa/storage/database/sqlx"
	"github.com/trezcool/observa/tests"
)

var (
	conf = &core.Config{
		AppName:   "Observa",
		SecretKey: "secret",
		TestMode:  true,
		Server: core.ServerConfig{
			JWTExpirationDelta: time.Hour,
			DisableReqLogs:     true,
		},
	}

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
)

type fixture struct {
	app       *echoapi.Server
	logger    *testutil.Logger
	dean      user.User
	chair     user.User // BSIT, assigned to scheduled and none
	edp       user.User
	tchrUsr   user.User // scheduled's account
	scheduled teacher.Teacher
	roomOnly  teacher.Teacher
	none      teacher.Teacher // not scheduled
}

func setup(t *testing.T) *fixture {
	// set up DB & repos
	db := testutil.PrepareDB(t)
	evalRepo := sqlxrepos.NewEvaluationRepository(db)
	criteriaRepo := sqlxrepos.NewCriteriaRepository(db)
	usrRepo := sqlxrepos.NewUserRepository(db)
	tchrRepo := sqlxrepos.NewTeacherRepository(db)
	asgmtRepo := sqlxrepos.NewAssignmentRepository(db)

	if _, err := evaluation.SeedCriteria(context.Background(), criteriaRepo); err != nil {
		t.Fatalf("SeedCriteria() failed: %v", err)
	}

	f := &fixture{logger: new(testutil.Logger)}
	f.scheduled = testutil.CreateTeacher(t, tchrRepo, "Ana Reyes", "ana@school.test", "BSIT", testutil.Schedule(time.Now().Add(24*time.Hour)))
	f.roomOnly = testutil.CreateTeacher(t, tchrRepo, "Ben Cruz", "", "BSIT", teacher.Schedule{Room: null.StringFrom("Room 101")})
	f.none = testutil.CreateTeacher(t, tchrRepo, "Carla Diaz", "", "BSED")

	f.dean = testutil.CreateUser(t, usrRepo, "Dean", "dean@school.test", user.RoleDean, "", "")
	f.chair = testutil.CreateUser(t, usrRepo, "Chair", "chair@school.test", user.RoleChairperson, "BSIT", "")
	f.edp = testutil.CreateUser(t, usrRepo, "EDP", "edp@school.test", user.RoleEDP, "", "")
	f.tchrUsr = testutil.CreateUser(t, usrRepo, "Ana Reyes", "ana.user@school.test", user.RoleTeacher, "BSIT", f.scheduled.ID)

	testutil.CreateAssignment(t, asgmtRepo, f.chair.ID, f.scheduled.ID, "BSIT")
	testutil.CreateAssignment(t, asgmtRepo, f.chair.ID, f.none.ID, "BSIT")

	// set up services
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	evaluation.InitValidators(validate, translator)

	evalSvc := evaluation.NewService(evaluation.ServiceDeps{
		DB:             db,
		Repo:           evalRepo,
		CriteriaRepo:   criteriaRepo,
		UserRepo:       usrRepo,
		TeacherRepo:    tchrRepo,
		AssignmentRepo: asgmtRepo,
		Validate:       validate,
		Translator:     translator,
		Logger:         f.logger,
	})

	// set up server
	f.app = echoapi.NewServer(echoapi.ServerDeps{
		Conf:          conf,
		Logger:        f.logger,
		EvaluationSvc: evalSvc,
	})
	return f
}

type httpErr struct {
	Error string `json:"error"`
}

type result struct {
	Success      bool              `json:"success"`
	EvaluationID string            `json:"evaluation_id"`
	Message      string            `json:"message"`
	Errors       map[string]string `json:"errors"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func newFormRequest(path, token string, form url.Values) (*http.Request, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, httptest.NewRecorder()
}

func (f *fixture) do(req *http.Request, rec *httptest.ResponseRecorder) *httptest.ResponseRecorder {
	f.app.ServeHTTP(rec, req)
	return rec
}

func getToken(t *testing.T, usr user.User) string {
	token, err := user.GenerateToken(user.NewClaims(usr, conf), conf.SecretKey)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

// fullPayload rates every criterion of the catalog with `rating`, with flat keys.
func fullPayload(teacherID string, rating int) map[string]interface{} {
	payload := map[string]interface{}{
		"teacher_id":         teacherID,
		"academic_year":      "2024-2025",
		"semester":           "1st",
		"subject_observed":   "Algebra",
		"observation_type":   "Formal",
		"strengths":          "Pacing",
		"rater_printed_name": "Dean",
	}
	for _, cat := range evaluation.Categories {
		for idx := 0; idx < cat.CriteriaCount(); idx++ {
			payload[string(cat)+strconv.Itoa(idx)] = rating
		}
	}
	return payload
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func unmarshal(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dest); err != nil {
		t.Fatalf("json.Unmarshal(%s) failed: %v", rec.Body.String(), err)
	}
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
