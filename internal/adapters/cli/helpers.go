package cli

import (
	"context"
	"reflect"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/oriolvila/clinicore-go/internal/adapters/metrics"
	"github.com/oriolvila/clinicore-go/internal/adapters/persistence"
	"github.com/oriolvila/clinicore-go/internal/application/auth"
	billingCmd "github.com/oriolvila/clinicore-go/internal/application/billing/commands"
	billingQuery "github.com/oriolvila/clinicore-go/internal/application/billing/queries"
	billingSvc "github.com/oriolvila/clinicore-go/internal/application/billing/services"
	chargeCmd "github.com/oriolvila/clinicore-go/internal/application/charge/commands"
	chargeQuery "github.com/oriolvila/clinicore-go/internal/application/charge/queries"
	clinicalCmd "github.com/oriolvila/clinicore-go/internal/application/clinical/commands"
	"github.com/oriolvila/clinicore-go/internal/application/common"
	inventoryCmd "github.com/oriolvila/clinicore-go/internal/application/inventory/commands"
	inventoryQuery "github.com/oriolvila/clinicore-go/internal/application/inventory/queries"
	"github.com/oriolvila/clinicore-go/internal/domain/shared"
	"github.com/oriolvila/clinicore-go/internal/infrastructure/config"
	"github.com/oriolvila/clinicore-go/internal/infrastructure/database"
	"github.com/oriolvila/clinicore-go/internal/infrastructure/logging"
)

// cliContext bundles what every CLI command needs
type cliContext struct {
	cfg      *config.Config
	db       *gorm.DB
	log      *logrus.Logger
	scope    common.TransactionScope
	guard    *auth.Guard
	actor    shared.Actor
	mediator common.Mediator
}

// newCLIContext loads configuration, connects to the database and builds the
// mediator commands are sent through
func newCLIContext() (*cliContext, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	if verbose {
		cfg.Logging.Level = "debug"
	}
	log, err := logging.NewLogger(&cfg.Logging)
	if err != nil {
		return nil, err
	}

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		return nil, err
	}

	roles := make([]shared.Role, len(actorRoles))
	for i, r := range actorRoles {
		roles[i] = shared.Role(r)
	}

	if metrics.Registry == nil {
		metrics.InitRegistry()
		collector := metrics.NewCoreMetricsCollector()
		if err := collector.Register(); err != nil {
			return nil, err
		}
		metrics.SetGlobalCollector(collector)
	}

	c := &cliContext{
		cfg:   cfg,
		db:    db,
		log:   log,
		scope: persistence.NewGormTransactionScope(db),
		guard: auth.NewGuard(),
		actor: shared.Actor{SubjectID: actorID, Roles: roles},
	}
	if err := c.registerHandlers(); err != nil {
		return nil, err
	}
	return c, nil
}

// registerHandlers wires every command and query handler into the mediator
func (c *cliContext) registerHandlers() error {
	m := common.NewMediator()
	core := c.cfg.Core
	integrator := billingSvc.NewStockSaleIntegrator(core.DefaultStockLocationCode, core.AllowExpiredOnRefund, nil)

	handlers := map[common.Request]common.RequestHandler{
		&billingCmd.CreateSaleCommand{}:          billingCmd.NewCreateSaleHandler(c.scope, c.guard, core.SaleNumberFormat, core.DefaultCurrency, nil),
		&billingCmd.TransitionSaleCommand{}:      billingCmd.NewTransitionSaleHandler(c.scope, c.guard, integrator, nil),
		&billingQuery.GetSaleQuery{}:             billingQuery.NewGetSaleHandler(c.scope, c.guard),
		&chargeCmd.GenerateProposalCommand{}:     chargeCmd.NewGenerateProposalHandler(c.scope, c.guard, core.DefaultCurrency, nil),
		&chargeCmd.ConvertToSaleCommand{}:        chargeCmd.NewConvertToSaleHandler(c.scope, c.guard, core.SaleNumberFormat, nil),
		&chargeQuery.GetProposalQuery{}:          chargeQuery.NewGetProposalHandler(c.scope, c.guard),
		&clinicalCmd.RegisterPatientCommand{}:    clinicalCmd.NewRegisterPatientHandler(c.scope, c.guard, nil),
		&clinicalCmd.RecordConsentsCommand{}:     clinicalCmd.NewRecordConsentsHandler(c.scope, c.guard, nil),
		&clinicalCmd.CreateEncounterCommand{}:    clinicalCmd.NewCreateEncounterHandler(c.scope, c.guard, nil),
		&clinicalCmd.AddTreatmentCommand{}:       clinicalCmd.NewAddTreatmentHandler(c.scope, c.guard, nil),
		&clinicalCmd.FinalizeEncounterCommand{}:  clinicalCmd.NewFinalizeEncounterHandler(c.scope, c.guard, nil),
		&inventoryCmd.ReceiveStockCommand{}:      inventoryCmd.NewReceiveStockHandler(c.scope, c.guard, nil),
		&inventoryCmd.AdjustStockCommand{}:       inventoryCmd.NewAdjustStockHandler(c.scope, c.guard, nil),
		&inventoryCmd.TransferStockCommand{}:     inventoryCmd.NewTransferStockHandler(c.scope, c.guard, nil),
		&inventoryCmd.WasteStockCommand{}:        inventoryCmd.NewWasteStockHandler(c.scope, c.guard, nil),
		&inventoryQuery.GetOnHandQuery{}:         inventoryQuery.NewGetOnHandHandler(c.scope, c.guard),
		&inventoryQuery.ListExpiringBatchesQuery{}: inventoryQuery.NewListExpiringBatchesHandler(c.scope, c.guard, nil),
	}
	for request, handler := range handlers {
		if err := m.Register(reflect.TypeOf(request), handler); err != nil {
			return err
		}
	}

	c.mediator = m
	return nil
}

// send dispatches a request through the mediator with the CLI logger attached
func (c *cliContext) send(ctx context.Context, request common.Request) (common.Response, error) {
	entry := c.log.WithField("actor", c.actor.SubjectID)
	return c.mediator.Send(common.WithLogger(ctx, entry), request)
}

func (c *cliContext) close() {
	_ = database.Close(c.db)
}
