package graphql

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/nerrad567/holocron/internal/eventbus"
	"github.com/nerrad567/holocron/internal/human"
	"github.com/nerrad567/holocron/internal/infrastructure/logging"
)

const createHanSolo = `mutation {
  createHuman(newHuman: {name: "Han Solo", appearsIn: [NEW_HOPE, EMPIRE, JEDI], homePlanet: "Corellia"}) {
    id
    name
    appearsIn
    homePlanet
  }
}`

// failingRepo returns fixed errors from every call.
type failingRepo struct {
	findErr   error
	insertErr error
}

func (r failingRepo) FindByID(context.Context, string) (*human.Human, error) {
	return nil, r.findErr
}

func (r failingRepo) Insert(context.Context, human.NewHuman) (*human.Human, error) {
	return nil, r.insertErr
}

func newTestExecutor(t *testing.T, repo human.Repository, capacity int) (*Executor, *eventbus.Bus[human.Human]) {
	t.Helper()

	if repo == nil {
		repo = human.NewStubRepository()
	}
	bus := eventbus.New[human.Human](capacity)
	t.Cleanup(bus.Close)

	exec, err := NewExecutor(Deps{Repo: repo, Bus: bus, Logger: logging.Discard()})
	if err != nil {
		t.Fatalf("NewExecutor() error = %v", err)
	}
	return exec, bus
}

func toJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	return string(b)
}

func errorCode(t *testing.T, res Result) string {
	t.Helper()
	if len(res.Errors) == 0 {
		t.Fatal("expected errors, got none")
	}
	code, _ := res.Errors[0].Extensions["code"].(string)
	return code
}

func TestNewExecutorRequiresDeps(t *testing.T) {
	if _, err := NewExecutor(Deps{Bus: eventbus.New[human.Human](1)}); err == nil {
		t.Error("NewExecutor() without repository should fail")
	}
	if _, err := NewExecutor(Deps{Repo: human.NewStubRepository()}); err == nil {
		t.Error("NewExecutor() without bus should fail")
	}
}

func TestExecuteQueries(t *testing.T) {
	exec, _ := newTestExecutor(t, nil, 4)

	tests := []struct {
		name string
		req  Request
		want string
	}{
		{
			name: "api version",
			req:  Request{Query: `{ apiVersion }`},
			want: `{"data":{"apiVersion":"1.0"}}`,
		},
		{
			name: "human by id",
			req:  Request{Query: `{ human(id: "1000") { id name appearsIn homePlanet } }`},
			want: `{"data":{"human":{"id":"1000","name":"Luke Skywalker","appearsIn":["NEW_HOPE","EMPIRE","JEDI"],"homePlanet":"Tatooine"}}}`,
		},
		{
			name: "aliases and typename",
			req:  Request{Query: `{ v: apiVersion luke: human(id: "1") { __typename who: name } }`},
			want: `{"data":{"v":"1.0","luke":{"__typename":"Human","who":"Luke Skywalker"}}}`,
		},
		{
			name: "fragments",
			req: Request{Query: `
				query { human(id: "1") { ...Names ... on Human { homePlanet } } }
				fragment Names on Human { id name }`},
			want: `{"data":{"human":{"id":"1","name":"Luke Skywalker","homePlanet":"Tatooine"}}}`,
		},
		{
			name: "skip and include",
			req: Request{
				Query:     `query Q($withPlanet: Boolean!) { human(id: "1") { name @skip(if: true) id homePlanet @include(if: $withPlanet) } }`,
				Variables: map[string]any{"withPlanet": false},
			},
			want: `{"data":{"human":{"id":"1"}}}`,
		},
		{
			name: "variables",
			req: Request{
				Query:     `query Find($id: ID!) { human(id: $id) { id } }`,
				Variables: map[string]any{"id": "2001"},
			},
			want: `{"data":{"human":{"id":"2001"}}}`,
		},
		{
			name: "named operation among several",
			req: Request{
				Query:         `query A { apiVersion } query B { __typename }`,
				OperationName: "B",
			},
			want: `{"data":{"__typename":"Query"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := exec.Execute(context.Background(), tt.req)
			if !res.OK() {
				t.Fatalf("Execute() errors = %v", res.Errors)
			}
			if got := toJSON(t, res); got != tt.want {
				t.Errorf("Execute() =\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}

func TestExecuteErrors(t *testing.T) {
	exec, _ := newTestExecutor(t, nil, 4)

	tests := []struct {
		name     string
		req      Request
		wantCode string
	}{
		{"syntax error", Request{Query: `{ apiVersion `}, ""},
		{"unknown field", Request{Query: `{ starship }`}, ""},
		{"missing variable", Request{Query: `query Find($id: ID!) { human(id: $id) { id } }`}, ""},
		{"ambiguous operation", Request{Query: `query A { apiVersion } query B { apiVersion }`}, CodeOperationNotFound},
		{"unknown operation", Request{Query: `query A { apiVersion }`, OperationName: "Z"}, CodeOperationNotFound},
		{"introspection", Request{Query: `{ __schema { queryType { name } } }`}, CodeIntrospectionDisabled},
		{"subscription over http", Request{Query: `subscription { humanCreated { id } }`}, CodeSubscriptionOverHTTP},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := exec.Execute(context.Background(), tt.req)
			if res.OK() {
				t.Fatalf("Execute() succeeded, want errors: %s", toJSON(t, res))
			}
			if tt.wantCode != "" {
				if got := errorCode(t, res); got != tt.wantCode {
					t.Errorf("code = %q, want %q", got, tt.wantCode)
				}
			}
		})
	}
}

func TestHumanNotFound(t *testing.T) {
	exec, _ := newTestExecutor(t, failingRepo{findErr: human.ErrNotFound}, 4)

	res := exec.Execute(context.Background(), Request{Query: `{ apiVersion human(id: "x") { id } }`})

	if got := errorCode(t, res); got != CodeHumanNotFound {
		t.Errorf("code = %q, want %q", got, CodeHumanNotFound)
	}
	var decoded struct {
		Data   map[string]any `json:"data"`
		Errors []struct {
			Message string `json:"message"`
			Path    []any  `json:"path"`
		} `json:"errors"`
	}
	if err := json.Unmarshal([]byte(toJSON(t, res)), &decoded); err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	if decoded.Data["apiVersion"] != "1.0" {
		t.Errorf("apiVersion = %v, want 1.0 alongside the failed field", decoded.Data["apiVersion"])
	}
	if v, ok := decoded.Data["human"]; !ok || v != nil {
		t.Errorf("human = %v (present %v), want explicit null", v, ok)
	}
	if len(decoded.Errors) != 1 || len(decoded.Errors[0].Path) != 1 || decoded.Errors[0].Path[0] != "human" {
		t.Errorf("errors = %+v, want one error at path [human]", decoded.Errors)
	}
}

func TestCreateHumanWithoutSubscribers(t *testing.T) {
	exec, bus := newTestExecutor(t, nil, 4)

	res := exec.Execute(context.Background(), Request{Query: createHanSolo})
	if !res.OK() {
		t.Fatalf("Execute() errors = %v", res.Errors)
	}

	want := `{"data":{"createHuman":{"id":"generated-id","name":"Han Solo","appearsIn":["NEW_HOPE","EMPIRE","JEDI"],"homePlanet":"Corellia"}}}`
	if got := toJSON(t, res); got != want {
		t.Errorf("Execute() =\n%s\nwant\n%s", got, want)
	}
	if bus.Published() != 1 {
		t.Errorf("Published() = %d, want 1", bus.Published())
	}
}

func TestCreateHumanWithVariables(t *testing.T) {
	exec, _ := newTestExecutor(t, nil, 4)

	res := exec.Execute(context.Background(), Request{
		Query: `mutation Create($h: NewHuman!) { createHuman(newHuman: $h) { name appearsIn } }`,
		Variables: map[string]any{"h": map[string]any{
			"name":       "Leia Organa",
			"appearsIn":  []any{"EMPIRE"},
			"homePlanet": "Alderaan",
		}},
	})
	if !res.OK() {
		t.Fatalf("Execute() errors = %v", res.Errors)
	}
	want := `{"data":{"createHuman":{"name":"Leia Organa","appearsIn":["EMPIRE"]}}}`
	if got := toJSON(t, res); got != want {
		t.Errorf("Execute() = %s, want %s", got, want)
	}
}

func TestCreateHumanInsertFailureSkipsPublish(t *testing.T) {
	exec, bus := newTestExecutor(t, failingRepo{insertErr: errors.New("disk full")}, 4)

	res := exec.Execute(context.Background(), Request{Query: createHanSolo})
	if got := errorCode(t, res); got != CodeInternal {
		t.Errorf("code = %q, want %q", got, CodeInternal)
	}
	if res.Data != nil {
		t.Errorf("Data = %v, want nil", res.Data)
	}
	if bus.Published() != 0 {
		t.Errorf("Published() = %d, want 0", bus.Published())
	}
}

func TestCreateHumanValidationError(t *testing.T) {
	exec, bus := newTestExecutor(t, nil, 4)

	res := exec.Execute(context.Background(), Request{
		Query: `mutation { createHuman(newHuman: {name: "", appearsIn: [], homePlanet: "Hoth"}) { id } }`,
	})
	if got := errorCode(t, res); got != CodeInvalidInput {
		t.Errorf("code = %q, want %q", got, CodeInvalidInput)
	}
	if bus.Published() != 0 {
		t.Errorf("Published() = %d, want 0", bus.Published())
	}
}

func TestPublishFailureKeepsMutationResult(t *testing.T) {
	exec, bus := newTestExecutor(t, nil, 4)
	bus.Close()

	res := exec.Execute(context.Background(), Request{Query: createHanSolo})
	if !res.OK() {
		t.Fatalf("Execute() errors = %v, want success despite closed bus", res.Errors)
	}
}

func TestParseRequest(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"full", `{"query":"{ apiVersion }","operationName":"Q","variables":{"a":1}}`, false},
		{"query only", `{"query":"{ apiVersion }"}`, false},
		{"not json", `not json`, true},
		{"missing query", `{"variables":{}}`, true},
		{"blank query", `{"query":"   "}`, true},
		{"wrong type", `{"query":42}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRequest([]byte(tt.body))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRequest() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidRequest) {
				t.Errorf("error = %v, want ErrInvalidRequest", err)
			}
		})
	}
}

func TestRequestFromQuery(t *testing.T) {
	values := url.Values{
		"query":         {`query Q($id: ID!) { human(id: $id) { id } }`},
		"operationName": {"Q"},
		"variables":     {`{"id":"7"}`},
	}
	req, err := RequestFromQuery(values)
	if err != nil {
		t.Fatalf("RequestFromQuery() error = %v", err)
	}
	if req.OperationName != "Q" || req.Variables["id"] != "7" {
		t.Errorf("RequestFromQuery() = %+v", req)
	}

	if _, err := RequestFromQuery(url.Values{"query": {"{ apiVersion }"}, "variables": {"[1]"}}); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("bad variables error = %v, want ErrInvalidRequest", err)
	}
	if _, err := RequestFromQuery(url.Values{}); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("missing query error = %v, want ErrInvalidRequest", err)
	}
}

func TestQueryErrorMessage(t *testing.T) {
	exec, _ := newTestExecutor(t, nil, 4)
	_, err := exec.Subscribe(context.Background(), Request{Query: `{ apiVersion }`})

	var qe *QueryError
	if !errors.As(err, &qe) {
		t.Fatalf("Subscribe() error = %v, want *QueryError", err)
	}
	if !strings.Contains(qe.Error(), "subscription") {
		t.Errorf("Error() = %q", qe.Error())
	}
}
