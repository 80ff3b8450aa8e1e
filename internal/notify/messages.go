package notify

import (
	"fmt"
	"time"

	"agendo-api/internal/model"
)

var statusLabel = map[model.AppointmentStatus]string{
	model.StatusPending:   "pendente",
	model.StatusConfirmed: "confirmado",
	model.StatusCompleted: "concluído",
	model.StatusCancelled: "cancelado",
	model.StatusNoShow:    "não comparecimento",
}

var withdrawalLabel = map[model.WithdrawalStatus]string{
	model.WithdrawalPending:    "pendente",
	model.WithdrawalProcessing: "em processamento",
	model.WithdrawalPaid:       "pago",
	model.WithdrawalRejected:   "rejeitado",
}

func when(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("02/01/2006 às 15:04")
}

func reais(cents int64) string {
	return fmt.Sprintf("R$ %d,%02d", cents/100, cents%100)
}

// AppointmentCreated tells the provider about a new booking.
func AppointmentCreated(a *model.Appointment, service string, loc *time.Location) Message {
	return Message{
		UserID:        a.ProviderID,
		Title:         "Novo agendamento",
		Body:          fmt.Sprintf("%s em %s.", service, when(a.StartTime, loc)),
		Type:          TypeAppointmentCreated,
		AppointmentID: a.ID,
		WhatsApp:      true,
	}
}

// AppointmentStatus tells the other party that an appointment changed.
func AppointmentStatus(a *model.Appointment, recipient string, loc *time.Location) Message {
	return Message{
		UserID:        recipient,
		Title:         "Agendamento " + statusLabel[a.Status],
		Body:          fmt.Sprintf("O agendamento de %s foi marcado como %s.", when(a.StartTime, loc), statusLabel[a.Status]),
		Type:          TypeAppointmentStatus,
		AppointmentID: a.ID,
		WhatsApp:      a.Status == model.StatusConfirmed || a.Status == model.StatusCancelled,
	}
}

func PaymentConfirmed(a *model.Appointment, loc *time.Location) Message {
	return Message{
		UserID:        a.ProviderID,
		Title:         "Pagamento confirmado",
		Body:          fmt.Sprintf("Pagamento de %s recebido para %s.", reais(a.TotalCents), when(a.StartTime, loc)),
		Type:          TypePaymentConfirmed,
		AppointmentID: a.ID,
	}
}

func WithdrawalUpdated(w *model.Withdrawal) Message {
	body := fmt.Sprintf("Seu saque de %s está %s.", reais(w.AmountCents), withdrawalLabel[w.Status])
	if w.AdminNotes != "" {
		body += " " + w.AdminNotes
	}
	return Message{
		UserID:   w.ProviderID,
		Title:    "Saque atualizado",
		Body:     body,
		Type:     TypeWithdrawalUpdated,
		WhatsApp: w.Status == model.WithdrawalPaid,
	}
}
