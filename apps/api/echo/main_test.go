package echoapi_test

import (
	"bytes"
	"encoding/json"
	"io/ioutil"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	. "github.com/majorhelp/majorhelp/apps/api/echo"
	"github.com/majorhelp/majorhelp/core"
	"github.com/majorhelp/majorhelp/core/calc"
	"github.com/majorhelp/majorhelp/core/scorecard"
	"github.com/majorhelp/majorhelp/core/university"
	"github.com/majorhelp/majorhelp/core/user"
	emailsvc "github.com/majorhelp/majorhelp/services/email"
	logsvc "github.com/majorhelp/majorhelp/services/logger"
	dummydb "github.com/majorhelp/majorhelp/storage/database/dummy"
)

var (
	app     Server
	usrSvc  *user.Service
	uniSvc  *university.Service
	calcSvc *calc.Service
	usrRepo user.Repository

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
)

func TestMain(m *testing.M) {
	conf := &core.Config{
		Debug:                     false,
		TestMode:                  true,
		AppName:                   "MajorHelp",
		SecretKey:                 []byte("s3cr3t"),
		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
		Server: core.ServerConfig{
			JWTExpirationDelta:        10 * time.Minute,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
	}

	// set up DB & repos
	db, err := dummydb.Open()
	if err != nil {
		log.Fatalf("dummydb.Open(): %v", err)
	}
	usrRepo = dummydb.NewUserRepository(db)
	uniRepo := dummydb.NewUniversityRepository(db)
	calcRepo := dummydb.NewSavedCalcRepository(db)

	// set up services
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	usrSvc = user.NewService(usrRepo, mailSvc, conf)
	uniSvc = university.NewService(uniRepo)
	calcSvc = calc.NewService(uniSvc, calcRepo)

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	university.InitValidators(validate, translator)

	logger := logsvc.NewRollbarLogger(log.New(ioutil.Discard, "", 0), conf)
	logger.Enable(false)

	upstream := httptest.NewServer(http.HandlerFunc(fakeScorecardUpstream))
	conf.Scorecard = core.ScorecardConfig{BaseURL: upstream.URL, ApiKey: "test-key"}

	// set up server
	app = NewServer(ServerDeps{
		Conf:       conf,
		Logger:     logger,
		UserSvc:    usrSvc,
		UniSvc:     uniSvc,
		CalcSvc:    calcSvc,
		Scorecard:  scorecard.NewClient(conf),
		Validate:   validate,
		Translator: translator,
	})

	code := m.Run()
	upstream.Close()
	os.Exit(code)
}

// fakeScorecardUpstream serves a single fixed school for the proxy tests.
func fakeScorecardUpstream(w http.ResponseWriter, r *http.Request) {
	var results []map[string]interface{}
	switch r.URL.Query().Get("id") {
	case "":
		results = []map[string]interface{}{{
			"id":           42,
			"school.name":  "Scorecard Test University",
			"school.city":  "Columbia",
			"school.state": "SC",
		}}
	case "42":
		results = []map[string]interface{}{{
			"school.name":  "Scorecard Test University",
			"school.city":  "Columbia",
			"school.state": "SC",
			"school.zip":   "29208",
			"latest.admissions.admission_rate.overall": 0.647,
			"latest.cost.tuition.in_state":             12688,
		}}
	default:
		results = []map[string]interface{}{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"results": results})
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
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

func getToken(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := GenerateToken(GetUserClaims(usr))
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshallObj(): %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
