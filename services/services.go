package services

import (
	"github.com/sirupsen/logrus"

	"groscales/config"
	"groscales/repository"
	"groscales/sms"
)

// Services is the wired application layer shared by the HTTP server and
// the CLI.
type Services struct {
	Threads  *ThreadResolver
	From     *FromNumberResolver
	Deliver  *Deliverer
	Runner   *WorkflowRunner
	Inbound  *InboundService
	Messages *MessageService
	Status   *StatusService
	Drafts   *DraftService
}

func New(
	cfg *config.Config,
	repos *repository.Repositories,
	transport sms.Transport,
	events EventPublisher,
	logger logrus.FieldLogger,
) *Services {
	resolver := NewThreadResolver(repos.Threads)
	from := NewFromNumberResolver(repos.PhoneNumbers, cfg.Twilio.DefaultFromNumber)

	var statusCallback string
	if cfg.PublicBaseURL != "" && !transport.DryRun() {
		statusCallback = cfg.PublicBaseURL + "/webhooks/twilio/status"
	}
	deliverer := NewDeliverer(repos.Messages, repos.Threads, transport, events, statusCallback, logger)

	return &Services{
		Threads:  resolver,
		From:     from,
		Deliver:  deliverer,
		Runner:   NewWorkflowRunner(repos.Workflows, repos.Leads, resolver, from, deliverer, logger),
		Inbound:  NewInboundService(repos.Leads, repos.PhoneNumbers, repos.Messages, resolver, events, cfg.DefaultPhoneRegion, logger),
		Messages: NewMessageService(repos.Leads, resolver, from, deliverer, logger),
		Status:   NewStatusService(repos.Messages, repos.Threads, events, logger),
		Drafts:   NewDraftService(cfg.OpenAI, repos.Threads, repos.Messages, logger),
	}
}
