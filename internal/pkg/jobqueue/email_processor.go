package jobqueue

import (
	"fmt"

	"github.com/headshop-br/headshop/app/repository"
	"github.com/headshop-br/headshop/internal/pkg/mail"
)

// processOrderConfirmationEmailJob sends the "payment confirmed" mail for a
// paid order.
func (q *Queue) processOrderConfirmationEmailJob(job *Job) error {
	payload, err := OrderEmailJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}

	repos := repository.GetGlobalRepositories()
	order, err := repos.Order.GetByID(payload.OrderID)
	if err != nil {
		return fmt.Errorf("order %d not found: %w", payload.OrderID, err)
	}
	user, err := repos.User.GetByID(order.UserID)
	if err != nil {
		return fmt.Errorf("user %d not found: %w", order.UserID, err)
	}

	subject := fmt.Sprintf("Pedido %s confirmado", order.PublicID)
	body := fmt.Sprintf(
		"<p>Olá %s,</p><p>Recebemos o pagamento do seu pedido <strong>%s</strong> no valor de R$ %.2f.</p><p>Prazo estimado de entrega: %d dias úteis.</p>",
		user.Name, order.PublicID, order.Total, order.EstimatedDays,
	)
	return mail.SendMail(user.Email, subject, body)
}

// processSubscriptionRenewalEmailJob sends the renewal receipt.
func (q *Queue) processSubscriptionRenewalEmailJob(job *Job) error {
	payload, err := SubscriptionEmailJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}

	repos := repository.GetGlobalRepositories()
	sub, err := repos.Subscription.GetByID(payload.SubscriptionID)
	if err != nil {
		return fmt.Errorf("subscription %d not found: %w", payload.SubscriptionID, err)
	}
	user, err := repos.User.GetByID(sub.UserID)
	if err != nil {
		return fmt.Errorf("user %d not found: %w", sub.UserID, err)
	}

	planName := "sua assinatura"
	if sub.Plan != nil {
		planName = sub.Plan.Name
	}
	subject := fmt.Sprintf("Renovação confirmada - %s", planName)
	body := fmt.Sprintf(
		"<p>Olá %s,</p><p>A cobrança nº %d de %s no valor de R$ %.2f foi aprovada. Sua próxima caixa já está sendo preparada.</p>",
		user.Name, payload.CycleSequence, planName, sub.Amount,
	)
	return mail.SendMail(user.Email, subject, body)
}

// processSubscriptionCanceledEmailJob sends the cancellation notice.
func (q *Queue) processSubscriptionCanceledEmailJob(job *Job) error {
	payload, err := SubscriptionEmailJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}

	repos := repository.GetGlobalRepositories()
	sub, err := repos.Subscription.GetByID(payload.SubscriptionID)
	if err != nil {
		return fmt.Errorf("subscription %d not found: %w", payload.SubscriptionID, err)
	}
	user, err := repos.User.GetByID(sub.UserID)
	if err != nil {
		return fmt.Errorf("user %d not found: %w", sub.UserID, err)
	}

	planName := "sua assinatura"
	if sub.Plan != nil {
		planName = sub.Plan.Name
	}
	subject := fmt.Sprintf("Assinatura cancelada - %s", planName)
	body := fmt.Sprintf(
		"<p>Olá %s,</p><p>Sua assinatura %s foi cancelada. Nenhuma nova cobrança será feita.</p>",
		user.Name, planName,
	)
	return mail.SendMail(user.Email, subject, body)
}
