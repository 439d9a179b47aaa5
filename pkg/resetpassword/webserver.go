package resetpassword

import (
	"context"
	"embed"
	"fmt"
	html "html/template"
	"io"
	"net/http"
	"net/url"
	"time"

	pz "github.com/weberc2/httpeasy"
	"github.com/weberc2/resetui/pkg/criteria"
)

const (
	PathHome          = "/"
	PathResetPassword = "/reset-password"
	PathCriteria      = "/reset-password/criteria"
	PathExpired       = "/expired"

	// DefaultAppLink opens the mobile app's login screen.
	DefaultAppLink = "myapp://login"

	DefaultSubmitTimeout = 10 * time.Second
)

// WebServer serves the password reset pages.
type WebServer struct {
	// Submitter handles reset form submissions.
	Submitter *Submitter

	// AppLink is the custom-scheme URL the home page links to. Defaults to
	// `DefaultAppLink`.
	AppLink string

	// SubmitTimeout bounds the backend call made for each submission.
	// Defaults to `DefaultSubmitTimeout`.
	SubmitTimeout time.Duration
}

// Router registers the pages with `log`. The reset handler is registered as
// a stdlib route so that the backend call runs under the request's context.
func (ws *WebServer) Router(log pz.LogFunc) *pz.Router {
	return pz.NewRouter().
		Register(
			log,
			ws.HomeRoute(),
			ws.ResetPasswordFormRoute(),
			ws.CriteriaRoute(),
			ws.ExpiredRoute(),
		).
		RegisterStdlib(ws.ResetPasswordHandlerRoute(log))
}

func (ws *WebServer) HomeRoute() pz.Route {
	return pz.Route{
		Method: "GET",
		Path:   PathHome,
		Handler: func(pz.Request) pz.Response {
			ctx := struct {
				AppLink html.URL `json:"appLink"`
			}{AppLink: html.URL(ws.appLink())}
			return page(pz.Ok(pz.HTMLTemplate(templateHome, &ctx), &ctx))
		},
	}
}

func (ws *WebServer) ExpiredRoute() pz.Route {
	return pz.Route{
		Method: "GET",
		Path:   PathExpired,
		Handler: func(pz.Request) pz.Response {
			return page(pz.Ok(
				pz.HTMLTemplate(templateExpired, nil),
				&logging{Message: "served token expired page"},
			))
		},
	}
}

// ResetPasswordFormRoute serves the empty form. The reset token is taken
// from the `token` query string parameter and carried in a hidden field.
func (ws *WebServer) ResetPasswordFormRoute() pz.Route {
	return pz.Route{
		Method: "GET",
		Path:   PathResetPassword,
		Handler: func(r pz.Request) pz.Response {
			var token string
			if r.URL != nil {
				token = r.URL.Query().Get("token")
			}
			ctx := newFormContext(token, &Draft{}, false, false)
			return page(pz.Ok(pz.HTMLTemplate(templateResetPassword, ctx), ctx))
		},
	}
}

func (ws *WebServer) ResetPasswordHandlerRoute(log pz.LogFunc) pz.StdlibRoute {
	return pz.StdlibRoute{
		Method: "POST",
		Path:   PathResetPassword,
		Handler: func(w http.ResponseWriter, r *http.Request) {
			ws.ResetPasswordHandler(r.Context()).HTTP(log)(w, r)
		},
	}
}

// ResetPasswordHandler handles reset form submissions. The backend call is
// bounded by `ctx` and by `SubmitTimeout`.
func (ws *WebServer) ResetPasswordHandler(ctx context.Context) pz.Handler {
	return func(r pz.Request) pz.Response {
		form, err := parseForm(r)
		if err != nil {
			return pz.HandleError(
				"error parsing form data",
				ErrParsingFormData,
				&logging{
					Message:   "parsing reset password form",
					ErrorType: fmt.Sprintf("%T", err),
					Error:     err.Error(),
				},
			)
		}

		draft := Draft{
			Password:        form.Get("password"),
			ConfirmPassword: form.Get("confirmPassword"),
		}
		token := form.Get("token")

		c, cancel := context.WithTimeout(ctx, ws.submitTimeout())
		defer cancel()
		outcome := ws.Submitter.Submit(c, token, &draft)

		fc := newFormContext(
			token,
			&draft,
			form.Get("showPassword") != "",
			form.Get("showConfirmPassword") != "",
		)
		fc.applyOutcome(&outcome)

		headers := pageHeaders()
		if outcome.Redirect != nil {
			headers.Set("Refresh", refreshValue(outcome.Redirect))
		}
		return pz.Response{
			Status: outcomeStatus(outcome.Kind),
			Data:   pz.HTMLTemplate(templateResetPassword, fc),
		}.WithLogging(fc).WithHeaders(headers)
	}
}

// CriteriaRoute evaluates the password rules for the live checklist. It
// accepts the same form encoding as the reset form.
func (ws *WebServer) CriteriaRoute() pz.Route {
	return pz.Route{
		Method: "POST",
		Path:   PathCriteria,
		Handler: func(r pz.Request) pz.Response {
			form, err := parseForm(r)
			if err != nil {
				return pz.HandleError(
					"error parsing form data",
					ErrParsingFormData,
					&logging{
						Message:   "parsing criteria form",
						ErrorType: fmt.Sprintf("%T", err),
						Error:     err.Error(),
					},
				)
			}
			password := form.Get("password")
			status := criteria.Evaluate(password, form.Get("confirmPassword"))
			return pz.Ok(
				pz.JSON(&CriteriaResponse{
					Status:    status,
					Checklist: criteria.Checklist(status),
					Strength:  criteria.EstimateStrength(password),
				}),
				&logging{Message: "evaluated password criteria"},
			).WithHeaders(http.Header{"Cache-Control": []string{"no-store"}})
		},
	}
}

// CriteriaResponse is the body returned by `CriteriaRoute`.
type CriteriaResponse struct {
	Status    criteria.Status   `json:"status"`
	Checklist []criteria.Item   `json:"checklist"`
	Strength  criteria.Strength `json:"strength"`
}

func (ws *WebServer) appLink() string {
	if ws.AppLink == "" {
		return DefaultAppLink
	}
	return ws.AppLink
}

func (ws *WebServer) submitTimeout() time.Duration {
	if ws.SubmitTimeout <= 0 {
		return DefaultSubmitTimeout
	}
	return ws.SubmitTimeout
}

func outcomeStatus(kind OutcomeKind) int {
	switch kind {
	case OutcomeSuccess:
		return http.StatusOK
	case OutcomeMissingToken, OutcomeValidationFailed:
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

// formContext is both the template data for the reset form and the request
// log entry, so secrets are tagged out of the JSON.
type formContext struct {
	FormAction          string            `json:"formAction"`
	CriteriaAction      string            `json:"-"`
	Token               string            `json:"-"`
	Password            string            `json:"-"`
	ConfirmPassword     string            `json:"-"`
	ShowPassword        bool              `json:"showPassword"`
	ShowConfirmPassword bool              `json:"showConfirmPassword"`
	Checklist           []criteria.Item   `json:"-"`
	Strength            criteria.Strength `json:"-"`
	AllValid            bool              `json:"allValid"`
	Redirect            *Redirect         `json:"redirect,omitempty"`

	// for html template
	ErrorMessage   string `json:"errorMessage,omitempty"`
	SuccessMessage string `json:"successMessage,omitempty"`

	// logging only
	Outcome      string `json:"outcome,omitempty"`
	PrivateError string `json:"privateError,omitempty"`
}

func newFormContext(
	token string,
	draft *Draft,
	showPassword bool,
	showConfirmPassword bool,
) *formContext {
	status := criteria.Evaluate(draft.Password, draft.ConfirmPassword)
	return &formContext{
		FormAction:          PathResetPassword,
		CriteriaAction:      PathCriteria,
		Token:               token,
		Password:            draft.Password,
		ConfirmPassword:     draft.ConfirmPassword,
		ShowPassword:        showPassword,
		ShowConfirmPassword: showConfirmPassword,
		Checklist:           criteria.Checklist(status),
		Strength:            criteria.EstimateStrength(draft.Password),
		AllValid:            status.AllValid,
	}
}

func (ctx *formContext) applyOutcome(outcome *Outcome) {
	ctx.Outcome = outcome.Kind.String()
	if outcome.Cause != nil {
		ctx.PrivateError = outcome.Cause.Error()
	}
	if outcome.Failed() {
		ctx.ErrorMessage = outcome.Message
		return
	}

	// The draft is done with once the reset went through.
	ctx.SuccessMessage = outcome.Message
	ctx.Redirect = outcome.Redirect
	ctx.Password, ctx.ConfirmPassword = "", ""
	ctx.AllValid = false
}

type logging struct {
	Message   string `json:"message"`
	ErrorType string `json:"errorType,omitempty"`
	Error     string `json:"error,omitempty"`
}

var ErrParsingFormData = &pz.HTTPError{
	Status:  http.StatusBadRequest,
	Message: "error parsing form data",
}

// Forms carry two passwords of at most 64 UTF-16 units plus the reset token;
// 8kb is plenty even fully percent-encoded.
const maxFormBytes = 8192

func parseForm(r pz.Request) (url.Values, error) {
	if r.Body == nil {
		return url.Values{}, nil
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, maxFormBytes))
	if err != nil {
		return nil, fmt.Errorf("reading request body: %w", err)
	}
	form, err := url.ParseQuery(string(data))
	if err != nil {
		return nil, fmt.Errorf("parsing form data: %w", err)
	}
	return form, nil
}

func page(rsp pz.Response) pz.Response {
	return rsp.WithHeaders(pageHeaders())
}

func pageHeaders() http.Header {
	return http.Header{
		"Content-Type":  []string{"text/html; charset=utf-8"},
		"Cache-Control": []string{"no-store"},
	}
}

func refreshValue(redirect *Redirect) string {
	return fmt.Sprintf(
		"%d; url=%s",
		int(redirect.After.Round(time.Second)/time.Second),
		redirect.Location,
	)
}

//go:embed templates/*.html
var templateFS embed.FS

var (
	templateHome          = mustPage("home.html")
	templateExpired       = mustPage("expired.html")
	templateResetPassword = mustPage("resetpassword.html")
)

func mustPage(name string) *html.Template {
	return html.Must(html.New("layout.html").Funcs(html.FuncMap{
		"refresh": func(redirect *Redirect) html.HTML {
			return html.HTML(fmt.Sprintf(
				`<meta http-equiv="refresh" content="%s">`,
				html.HTMLEscapeString(refreshValue(redirect)),
			))
		},
	}).ParseFS(templateFS, "templates/layout.html", "templates/"+name))
}
