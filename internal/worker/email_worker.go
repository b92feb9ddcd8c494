package worker

// email_worker.go
// Handlers for QueueEmail and QueueAlertas. Both end in an SMTP send
// through infra.Sender, which is guarded by the circuit breaker.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gonza-rom/jmr-stock-sub000/internal/infra"

	"github.com/rs/zerolog/log"
)

// EmailJobPayload is the job payload sent to QueueEmail.
type EmailJobPayload struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
}

// AlertaStockPayload is the job payload sent to QueueAlertas.
type AlertaStockPayload struct {
	ProductoID  string `json:"producto_id"`
	Codigo      string `json:"codigo,omitempty"`
	Nombre      string `json:"nombre"`
	Stock       int    `json:"stock"`
	StockMinimo int    `json:"stock_minimo"`
}

// EmailWorker sends queued emails.
type EmailWorker struct {
	sender infra.Sender
}

func NewEmailWorker(sender infra.Sender) *EmailWorker {
	return &EmailWorker{sender: sender}
}

func (w *EmailWorker) Handle(_ context.Context, raw json.RawMessage) error {
	var payload EmailJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("email_worker: invalid payload")
		return nil
	}
	if len(payload.To) == 0 {
		log.Warn().Msg("email_worker: no recipients, skipping")
		return nil
	}
	return send(w.sender, payload.To, payload.Subject, payload.Body)
}

// AlertaStockWorker emails a single low-stock alert to the store owner.
type AlertaStockWorker struct {
	sender  infra.Sender
	to      []string
	negocio string
}

// NewAlertaStockWorker returns a worker that drops alerts when to is empty.
func NewAlertaStockWorker(sender infra.Sender, to []string, negocio string) *AlertaStockWorker {
	return &AlertaStockWorker{sender: sender, to: to, negocio: negocio}
}

func (w *AlertaStockWorker) Handle(_ context.Context, raw json.RawMessage) error {
	var p AlertaStockPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		log.Error().Err(err).Msg("alerta_worker: invalid payload")
		return nil
	}
	log.Warn().Str("producto", p.Nombre).Int("stock", p.Stock).Int("minimo", p.StockMinimo).Msg("stock bajo")
	if len(w.to) == 0 {
		return nil
	}
	subject := fmt.Sprintf("%s - Stock bajo: %s", w.negocio, p.Nombre)
	body := fmt.Sprintf("El producto %s", p.Nombre)
	if p.Codigo != "" {
		body += " (" + p.Codigo + ")"
	}
	body += fmt.Sprintf(" quedo con %d unidades; el minimo es %d.\n", p.Stock, p.StockMinimo)
	return send(w.sender, w.to, subject, body)
}

// send treats a disabled mailer as done so jobs do not pile up in the DLQ.
func send(sender infra.Sender, to []string, subject, body string) error {
	err := sender.Send(to, subject, body)
	if errors.Is(err, infra.ErrMailerDisabled) {
		log.Debug().Strs("to", to).Str("subject", subject).Msg("mailer disabled, email dropped")
		return nil
	}
	if err != nil {
		return err
	}
	log.Info().Strs("to", to).Str("subject", subject).Msg("email sent")
	return nil
}
