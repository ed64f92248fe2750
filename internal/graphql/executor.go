package graphql

import (
	"context"
	"errors"
	"fmt"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"github.com/vektah/gqlparser/v2/validator"

	"github.com/nerrad567/holocron/internal/eventbus"
	"github.com/nerrad567/holocron/internal/human"
	"github.com/nerrad567/holocron/internal/infrastructure/logging"
)

// DefaultAPIVersion is returned by the apiVersion field when none is configured.
const DefaultAPIVersion = "1.0"

// Deps holds the executor's collaborators.
type Deps struct {
	Repo       human.Repository
	Bus        *eventbus.Bus[human.Human]
	Logger     *logging.Logger
	APIVersion string
}

// Executor runs GraphQL operations against the Human schema.
type Executor struct {
	schema     *ast.Schema
	repo       human.Repository
	bus        *eventbus.Bus[human.Human]
	logger     *logging.Logger
	apiVersion string
}

// NewExecutor creates an Executor. Repo and Bus are required.
func NewExecutor(deps Deps) (*Executor, error) {
	if deps.Repo == nil {
		return nil, errors.New("graphql: repository is required")
	}
	if deps.Bus == nil {
		return nil, errors.New("graphql: event bus is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.Default()
	}
	version := deps.APIVersion
	if version == "" {
		version = DefaultAPIVersion
	}
	return &Executor{
		schema:     Schema,
		repo:       deps.Repo,
		bus:        deps.Bus,
		logger:     logger.With("component", "graphql"),
		apiVersion: version,
	}, nil
}

// operation is a parsed, validated request ready to resolve.
type operation struct {
	doc  *ast.QueryDocument
	def  *ast.OperationDefinition
	vars map[string]any
}

// prepare parses and validates req and coerces its variables.
func (e *Executor) prepare(req Request) (*operation, gqlerror.List) {
	doc, errs := gqlparser.LoadQuery(e.schema, req.Query)
	if len(errs) > 0 {
		return nil, errs
	}

	def := doc.Operations.ForName(req.OperationName)
	if def == nil {
		if req.OperationName == "" {
			return nil, gqlerror.List{codedError(CodeOperationNotFound,
				"operationName is required when the document has several operations")}
		}
		return nil, gqlerror.List{codedError(CodeOperationNotFound,
			"operation %q not found", req.OperationName)}
	}

	vars, varErr := validator.VariableValues(e.schema, def, req.Variables)
	if varErr != nil {
		return nil, asList(varErr)
	}

	return &operation{doc: doc, def: def, vars: vars}, nil
}

// Execute runs a query or mutation. A subscription operation yields an error
// result; subscriptions are served by Subscribe.
func (e *Executor) Execute(ctx context.Context, req Request) Result {
	op, errs := e.prepare(req)
	if errs != nil {
		return Result{Errors: errs}
	}

	run := &execution{exec: e, op: op}
	var data *object
	switch op.def.Operation {
	case ast.Query:
		data = run.resolveQuery(ctx)
	case ast.Mutation:
		data = run.resolveMutation(ctx)
	case ast.Subscription:
		return Failure(codedError(CodeSubscriptionOverHTTP,
			"subscriptions are served over the WebSocket endpoint"))
	default:
		return Failure(gqlerror.Errorf("unsupported operation type %q", op.def.Operation))
	}

	res := Result{Errors: run.errs}
	if data != nil {
		res.Data = data
	}
	return res
}

// execution holds per-request resolution state.
type execution struct {
	exec *Executor
	op   *operation
	errs gqlerror.List
}

func (x *execution) addError(err *gqlerror.Error, path ast.Path) {
	err.Path = path
	x.errs = append(x.errs, err)
}

// resolveQuery resolves the Query root. Field errors null the field and are
// collected; the rest of the selection still resolves.
func (x *execution) resolveQuery(ctx context.Context) *object {
	fields := x.collectFields(x.op.def.SelectionSet, "Query")
	out := newObject(len(fields))

	for _, f := range fields {
		key := responseKey(f)
		path := ast.Path{ast.PathName(key)}

		switch f.Name {
		case "__typename":
			out.set(key, "Query")
		case "__schema", "__type":
			x.addError(codedError(CodeIntrospectionDisabled, "introspection is not supported"), path)
			out.set(key, nil)
		case "apiVersion":
			out.set(key, x.exec.apiVersion)
		case "human":
			out.set(key, x.resolveHuman(ctx, f, path))
		default:
			x.addError(gqlerror.Errorf("unknown field %q on Query", f.Name), path)
			out.set(key, nil)
		}
	}
	return out
}

func (x *execution) resolveHuman(ctx context.Context, f *ast.Field, path ast.Path) any {
	id := fmt.Sprint(f.ArgumentMap(x.op.vars)["id"])

	h, err := x.exec.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, human.ErrNotFound) {
			x.addError(codedError(CodeHumanNotFound, "human %q not found", id), path)
			return nil
		}
		x.exec.logger.Error("finding human failed", "id", id, "error", err)
		x.addError(codedError(CodeInternal, "finding human failed"), path)
		return nil
	}
	return x.projectHuman(*h, f.SelectionSet)
}

// resolveMutation resolves Mutation root fields serially. createHuman is
// non-null, so its failure nulls the whole data object.
func (x *execution) resolveMutation(ctx context.Context) *object {
	fields := x.collectFields(x.op.def.SelectionSet, "Mutation")
	out := newObject(len(fields))

	for _, f := range fields {
		key := responseKey(f)
		path := ast.Path{ast.PathName(key)}

		switch f.Name {
		case "__typename":
			out.set(key, "Mutation")
		case "createHuman":
			v := x.createHuman(ctx, f, path)
			if v == nil {
				return nil
			}
			out.set(key, v)
		default:
			x.addError(gqlerror.Errorf("unknown field %q on Mutation", f.Name), path)
			return nil
		}
	}
	return out
}

func (x *execution) createHuman(ctx context.Context, f *ast.Field, path ast.Path) any {
	input, err := newHumanFromArgs(f.ArgumentMap(x.op.vars)["newHuman"])
	if err != nil {
		x.addError(codedError(CodeInvalidInput, "%s", err.Error()), path)
		return nil
	}

	created, err := x.exec.repo.Insert(ctx, input)
	if err != nil {
		code := CodeInternal
		if errors.Is(err, human.ErrInvalidName) || errors.Is(err, human.ErrInvalidHomePlanet) ||
			errors.Is(err, human.ErrInvalidEpisode) {
			code = CodeInvalidInput
		} else {
			x.exec.logger.Error("inserting human failed", "error", err)
		}
		x.addError(codedError(code, "%s", err.Error()), path)
		return nil
	}

	x.exec.publish(*created)
	return x.projectHuman(*created, f.SelectionSet)
}

// publish announces a created human. Failures are logged only; the mutation
// has already succeeded.
func (e *Executor) publish(h human.Human) {
	n, err := e.bus.Publish(h)
	if err != nil {
		e.logger.Warn("publishing human_created failed", "id", h.ID, "error", err)
		return
	}
	e.logger.Debug("published human_created", "id", h.ID, "subscribers", n)
}

// newHumanFromArgs converts a coerced NewHuman input object.
func newHumanFromArgs(raw any) (human.NewHuman, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return human.NewHuman{}, errors.New("newHuman must be an input object")
	}

	var n human.NewHuman
	n.Name, _ = m["name"].(string)
	n.HomePlanet, _ = m["homePlanet"].(string)

	switch eps := m["appearsIn"].(type) {
	case nil:
	case []any:
		for _, raw := range eps {
			s, _ := raw.(string)
			ep, err := human.ParseEpisode(s)
			if err != nil {
				return human.NewHuman{}, err
			}
			n.AppearsIn = append(n.AppearsIn, ep)
		}
	default:
		// A single enum value is coerced to a one element list.
		s, _ := eps.(string)
		ep, err := human.ParseEpisode(s)
		if err != nil {
			return human.NewHuman{}, err
		}
		n.AppearsIn = []human.Episode{ep}
	}
	if n.AppearsIn == nil {
		n.AppearsIn = []human.Episode{}
	}
	return n, nil
}
