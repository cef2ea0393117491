package nino

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/advdv/bwalk"
	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Body is the request and response body type of the ninoverse tree: raw JSON that every action
// decodes the way it needs.
type Body = json.RawMessage

// Tree is the dispatch tree served by the app.
type Tree = bwalk.Route[Body]

const (
	defaultProjectName        = "New Project"
	defaultProjectDescription = "Project Description"

	// MethodNotAllowedBody is written when a route is reached with the wrong method.
	MethodNotAllowedBody = "Method not allowed."
	// HeyBody is written by the hey route.
	HeyBody = "Hey there!"
)

// ProjectInput is the body of a project/add request. Missing fields take their defaults.
type ProjectInput struct {
	Name        string `json:"name" validate:"required,max=128"`
	Description string `json:"description" validate:"max=1024"`
}

// Project is a stored project record.
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Handlers holds the node actions of the ninoverse tree.
type Handlers struct {
	sink     Sink
	metrics  *Metrics
	validate *validator.Validate
	table    string
	now      func() time.Time
}

// NewHandlers creates the handlers.
func NewHandlers(env Environment, sink Sink, metrics *Metrics) *Handlers {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return &Handlers{
		sink:     sink,
		metrics:  metrics,
		validate: validate,
		table:    env.storeConfig().Table,
		now:      time.Now,
	}
}

// NewTree builds the ninoverse dispatch tree.
func NewTree(h *Handlers) *Tree {
	return bwalk.Root[Body](h.Root,
		bwalk.Branch[Body]("project", nil,
			bwalk.Leaf[Body]("add", h.AddProject).Named("project_add"),
		),
		bwalk.Leaf[Body]("echo", h.Echo).Named("echo"),
		bwalk.Leaf[Body]("hey", h.Hey).Named("hey"),
	)
}

// Root runs for every request. GET / is announced on the broker.
func (h *Handlers) Root(ctx context.Context, r *bwalk.Request[Body], _ bwalk.Store, _ bwalk.ResponseWriter) error {
	if r.Method() != bwalk.MethodGet || r.Path() != "/" {
		return nil
	}

	publish(ctx, h.sink, h.metrics, Message{Sender: "base_endpoint", Content: "Received a message!"})
	return nil
}

// AddProject stores a new project and answers with the stored record.
func (h *Handlers) AddProject(ctx context.Context, r *bwalk.Request[Body], store bwalk.Store, w bwalk.ResponseWriter) error {
	if r.Method() != bwalk.MethodPost {
		return bwalk.Respond(w, http.StatusMethodNotAllowed, MethodNotAllowedBody)
	}

	in := ProjectInput{Name: defaultProjectName, Description: defaultProjectDescription}
	if len(r.Body()) > 0 {
		if err := json.Unmarshal(r.Body(), &in); err != nil {
			return bwalk.Respond(w, http.StatusBadRequest, "invalid project: "+err.Error())
		}
	}

	if err := h.validate.StructCtx(ctx, in); err != nil {
		return bwalk.Respond(w, http.StatusBadRequest, validationMessage(err))
	}

	p := Project{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: in.Description,
		CreatedAt:   h.now().UTC(),
	}

	if err := store.Exec(ctx, insertProjectStatement(h.table), p.ID, p.Name, p.Description, p.CreatedAt); err != nil {
		return errors.Wrapf(err, "insert project %q", p.Name)
	}

	Log(ctx).Info("project added", zap.String("project_id", p.ID), zap.String("name", p.Name))
	publish(ctx, h.sink, h.metrics, Message{Sender: "project_add", Content: "Added project " + p.Name})

	return bwalk.Respond(w, http.StatusOK, p)
}

// Echo answers with the request body.
func (h *Handlers) Echo(_ context.Context, r *bwalk.Request[Body], _ bwalk.Store, w bwalk.ResponseWriter) error {
	body := r.Body()
	if len(body) == 0 {
		body = Body("{}")
	}

	return bwalk.Respond(w, http.StatusOK, body)
}

func (h *Handlers) Hey(_ context.Context, r *bwalk.Request[Body], _ bwalk.Store, w bwalk.ResponseWriter) error {
	if r.Method() != bwalk.MethodGet {
		return bwalk.Respond(w, http.StatusMethodNotAllowed, MethodNotAllowedBody)
	}

	return bwalk.Respond(w, http.StatusOK, HeyBody)
}

func insertProjectStatement(table string) string {
	return fmt.Sprintf(`INSERT INTO %q VALUE {'id': ?, 'name': ?, 'description': ?, 'created_at': ?}`, table)
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid project: " + err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed on %q", fe.Field(), fe.Tag()))
	}

	return "invalid project: " + strings.Join(msgs, ", ")
}
