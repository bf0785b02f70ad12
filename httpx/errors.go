package httpx

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/render"

	"github.com/mbolis/survey-portal/log"
	"github.com/mbolis/survey-portal/survey"
)

// Will log an error, and send an HTTP response with status 500 and default text
func LogInternalError(w http.ResponseWriter, code string, err error) {
	log.Errorf("%s: %s", code, err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// Will log a debug message, and send an HTTP response with status 404 and default text
func LogNotFound(w http.ResponseWriter, code string, id any) {
	log.Debugf("%s: not found (%v)", code, id)
	w.WriteHeader(http.StatusNotFound)
}

// Will log an error code at the given level, and send
// an HTTP response with status and default text
func LogStatus(w http.ResponseWriter, status int, level log.Level, code string) {
	log.Log(level, code)
	http.Error(w, http.StatusText(status), status)
}

// Message is the JSON body of every rejected request.
type Message struct {
	Message    string `json:"message"`
	QuestionID int    `json:"question_id,omitempty"`
	Field      string `json:"field,omitempty"`
}

// Will log an error code and message at the given level,
// and send a JSON response with the given status and formatted message
func LogStatusMsg(w http.ResponseWriter, r *http.Request, status int, level log.Level, code string, msg string, args ...any) {
	errMsg := fmt.Sprintf(msg, args...)
	log.Log(level, code+":", errMsg)
	render.Status(r, status)
	render.JSON(w, r, Message{Message: errMsg})
}

var statusMessages = []struct {
	err     error
	status  int
	message string
}{
	{survey.ErrNotFound, http.StatusNotFound, "not found"},
	{survey.ErrNotYetOpen, http.StatusForbidden, "this survey has not started yet"},
	{survey.ErrClosed, http.StatusGone, "this survey has ended"},
	{survey.ErrAlreadySubmitted, http.StatusConflict, "you have already answered this survey from this device or address"},
	{survey.ErrConflict, http.StatusConflict, "the survey was changed by someone else, reload and retry"},
}

// LogError answers with the status matching a survey pipeline error, or
// logs it and answers 500 when it is not one.
func LogError(w http.ResponseWriter, r *http.Request, code string, err error) {
	var verr *survey.ValidationError
	if errors.As(err, &verr) {
		log.Debugf("%s: %s", code, err)
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, Message{Message: verr.Message, QuestionID: verr.QuestionID})
		return
	}

	var serr *survey.SchemaError
	if errors.As(err, &serr) {
		log.Debugf("%s: %s", code, err)
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, Message{Message: serr.Message, Field: serr.Field})
		return
	}

	for _, sm := range statusMessages {
		if errors.Is(err, sm.err) {
			log.Debugf("%s: %s", code, err)
			render.Status(r, sm.status)
			render.JSON(w, r, Message{Message: sm.message})
			return
		}
	}

	LogInternalError(w, code, err)
}
