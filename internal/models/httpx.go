package models

import (
	"encoding/json"
	"net/http"
)

const (
	contentJSON    = "application/json"
	contentProblem = "application/problem+json"
)

// Problem: тело ошибки по RFC 7807. В Extra кладутся данные, нужные
// клиенту для разбора конфликта (например, занятые секции или reqid).
type Problem struct {
	Type     string `json:"type,omitempty"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
	Extra    any    `json:"extra,omitempty"`
}

// NewProblem заполняет Title стандартным текстом статуса.
func NewProblem(status int, detail string) Problem {
	return Problem{Title: http.StatusText(status), Status: status, Detail: detail}
}

func (p Problem) Write(w http.ResponseWriter) {
	if p.Title == "" {
		p.Title = http.StatusText(p.Status)
	}
	encode(w, p.Status, contentProblem, p)
}

func WriteProblem(w http.ResponseWriter, status int, title, detail string, extra any) {
	Problem{Title: title, Status: status, Detail: detail, Extra: extra}.Write(w)
}

// WriteJSON отдаёт v как есть, без конверта; конверт {success,data}
// собирает пакет api.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	encode(w, status, contentJSON, v)
}

func encode(w http.ResponseWriter, status int, ctype string, v any) {
	w.Header().Set("Content-Type", ctype)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
