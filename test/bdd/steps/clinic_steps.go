package steps

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cucumber/godog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/oriolvila/clinicore-go/internal/adapters/persistence"
	"github.com/oriolvila/clinicore-go/internal/application/auth"
	billingCmd "github.com/oriolvila/clinicore-go/internal/application/billing/commands"
	"github.com/oriolvila/clinicore-go/internal/application/billing/services"
	chargeCmd "github.com/oriolvila/clinicore-go/internal/application/charge/commands"
	"github.com/oriolvila/clinicore-go/internal/application/common"
	inventoryCmd "github.com/oriolvila/clinicore-go/internal/application/inventory/commands"
	"github.com/oriolvila/clinicore-go/internal/domain/billing"
	"github.com/oriolvila/clinicore-go/internal/domain/clinical"
	"github.com/oriolvila/clinicore-go/internal/domain/inventory"
	"github.com/oriolvila/clinicore-go/internal/domain/shared"
	"github.com/oriolvila/clinicore-go/internal/infrastructure/database"
)

// clinicContext carries the state of one scenario: an in-memory database,
// the command handlers under test, and the entities the Given steps created.
type clinicContext struct {
	db    *gorm.DB
	scope common.TransactionScope
	repos *common.Repositories

	transition *billingCmd.TransitionSaleHandler
	createSale *billingCmd.CreateSaleHandler
	generate   *chargeCmd.GenerateProposalHandler
	convert    *chargeCmd.ConvertToSaleHandler
	receive    *inventoryCmd.ReceiveStockHandler
	adjust     *inventoryCmd.AdjustStockHandler

	reception    shared.Actor
	practitioner shared.Actor
	clinicalOps  shared.Actor

	location   *inventory.StockLocation
	products   map[string]*inventory.Product
	batches    map[string]*inventory.StockBatch
	patient    *clinical.Patient
	treatments map[string]*clinical.Treatment
	encounter  *clinical.Encounter

	saleID         string
	saleRowVersion int
	movesMade      int

	proposalID      string
	proposalTotal   string
	convertedSaleID string

	payErr           error
	secondPayErr     error
	refundErr        error
	proposalErr      error
	secondProposal   error
	secondConversion error
	adjustErr        error
}

func (c *clinicContext) reset() error {
	db, err := database.NewTestConnection()
	if err != nil {
		return fmt.Errorf("failed to open test database: %w", err)
	}
	c.db = db

	// Wire real repositories and handlers against the in-memory database
	c.scope = persistence.NewGormTransactionScope(db)
	c.repos = persistence.NewRepositories(db)
	guard := auth.NewGuard()
	integrator := services.NewStockSaleIntegrator("MAIN-WAREHOUSE", true, nil)
	c.transition = billingCmd.NewTransitionSaleHandler(c.scope, guard, integrator, nil)
	c.createSale = billingCmd.NewCreateSaleHandler(c.scope, guard, "", "EUR", nil)
	c.generate = chargeCmd.NewGenerateProposalHandler(c.scope, guard, "EUR", nil)
	c.convert = chargeCmd.NewConvertToSaleHandler(c.scope, guard, "", nil)
	c.receive = inventoryCmd.NewReceiveStockHandler(c.scope, guard, nil)
	c.adjust = inventoryCmd.NewAdjustStockHandler(c.scope, guard, nil)

	c.reception = shared.Actor{SubjectID: "reception-1", Roles: []shared.Role{shared.RoleReception}}
	c.practitioner = shared.Actor{SubjectID: "dr-lopez", Roles: []shared.Role{shared.RolePractitioner}}
	c.clinicalOps = shared.Actor{SubjectID: "ops-1", Roles: []shared.Role{shared.RoleClinicalOps}}

	c.location = nil
	c.products = make(map[string]*inventory.Product)
	c.batches = make(map[string]*inventory.StockBatch)
	c.patient = nil
	c.treatments = make(map[string]*clinical.Treatment)
	c.encounter = nil

	c.saleID = ""
	c.saleRowVersion = 0
	c.movesMade = 0
	c.proposalID = ""
	c.proposalTotal = ""
	c.convertedSaleID = ""
	c.payErr = nil
	c.secondPayErr = nil
	c.refundErr = nil
	c.proposalErr = nil
	c.secondProposal = nil
	c.secondConversion = nil
	c.adjustErr = nil
	return nil
}

// Given steps

func (c *clinicContext) aStockLocation(code string) error {
	location, err := inventory.NewStockLocation(code, code)
	if err != nil {
		return err
	}
	if err := c.repos.Locations.Create(context.Background(), location); err != nil {
		return err
	}
	c.location = location
	return nil
}

func (c *clinicContext) aRegisteredPatient() error {
	patient, err := clinical.NewPatient("Jane Roe", "X123", "", "", time.Now())
	if err != nil {
		return err
	}
	if err := c.repos.Patients.Create(context.Background(), patient); err != nil {
		return err
	}
	c.patient = patient
	return nil
}

func (c *clinicContext) aProduct(sku string) error {
	product, err := inventory.NewProduct(sku, sku)
	if err != nil {
		return err
	}
	if err := c.repos.Products.Create(context.Background(), product); err != nil {
		return err
	}
	c.products[sku] = product
	return nil
}

func (c *clinicContext) receiveBatch(batchNumber, sku string, qty int, expiry time.Time) error {
	product, ok := c.products[sku]
	if !ok {
		return fmt.Errorf("unknown product %q", sku)
	}
	batch, err := inventory.NewStockBatch(product.ID(), batchNumber, &expiry)
	if err != nil {
		return err
	}
	if err := c.repos.Batches.Create(context.Background(), batch); err != nil {
		return err
	}
	move, err := inventory.NewStockMove(inventory.MoveSpec{
		ProductID:  product.ID(),
		LocationID: c.location.ID(),
		BatchID:    batch.ID(),
		MoveType:   inventory.MovePurchaseIn,
		Quantity:   qty,
		Reason:     "Goods receipt",
		CreatedBy:  "scenario-setup",
	}, time.Now())
	if err != nil {
		return err
	}
	if err := c.repos.Ledger.AppendMove(context.Background(), move, inventory.AppendOptions{}); err != nil {
		return err
	}
	c.batches[batchNumber] = batch
	return nil
}

func (c *clinicContext) aBatchExpiringIn(batchNumber, sku string, qty, days int) error {
	return c.receiveBatch(batchNumber, sku, qty, time.Now().AddDate(0, 0, days))
}

func (c *clinicContext) aBatchExpiredAgo(batchNumber, sku string, qty, days int) error {
	return c.receiveBatch(batchNumber, sku, qty, time.Now().AddDate(0, 0, -days))
}

func (c *clinicContext) aPendingSale(qty int, sku string) error {
	product, ok := c.products[sku]
	if !ok {
		return fmt.Errorf("unknown product %q", sku)
	}
	productID := product.ID()
	result, err := c.createSale.Handle(context.Background(), &billingCmd.CreateSaleCommand{
		PatientID:     c.patient.ID(),
		LegalEntityID: "clinic-1",
		Lines: []billingCmd.SaleLineInput{
			{ProductID: &productID, Quantity: qty, UnitPrice: decimal.NewFromInt(120)},
		},
		Actor: c.reception,
	})
	if err != nil {
		return err
	}
	created := result.(*billingCmd.CreateSaleResponse)
	c.saleID = created.SaleID
	c.saleRowVersion = created.RowVersion

	return c.transitionSale(billing.SaleStatusPending, "")
}

func (c *clinicContext) transitionSale(target billing.SaleStatus, reason string) error {
	result, err := c.transition.Handle(context.Background(), &billingCmd.TransitionSaleCommand{
		SaleID:       c.saleID,
		TargetStatus: target,
		Reason:       reason,
		RowVersion:   c.saleRowVersion,
		Actor:        c.reception,
	})
	if err != nil {
		return err
	}
	resp := result.(*billingCmd.TransitionSaleResponse)
	c.saleRowVersion = resp.RowVersion
	c.movesMade = resp.MovesMade
	return nil
}

func (c *clinicContext) aTreatmentPricedAt(name string, price int) error {
	p := decimal.NewFromInt(int64(price))
	treatment, err := clinical.NewTreatment(name, "", &p)
	if err != nil {
		return err
	}
	if err := c.repos.Treatments.Create(context.Background(), treatment); err != nil {
		return err
	}
	c.treatments[name] = treatment
	return nil
}

func (c *clinicContext) anEncounterWith(qty int, treatmentName string, finalize bool) error {
	treatment, ok := c.treatments[treatmentName]
	if !ok {
		return fmt.Errorf("unknown treatment %q", treatmentName)
	}
	now := time.Now()
	encounter, err := clinical.NewEncounter(c.patient.ID(), c.practitioner.SubjectID, now, now)
	if err != nil {
		return err
	}
	if _, err := encounter.AddTreatment(treatment, qty, nil, "", now); err != nil {
		return err
	}
	if finalize {
		if err := encounter.Finalize(now); err != nil {
			return err
		}
	}
	if err := c.repos.Encounters.Create(context.Background(), encounter); err != nil {
		return err
	}
	c.encounter = encounter
	return nil
}

func (c *clinicContext) aFinalizedEncounterWith(qty int, treatmentName string) error {
	return c.anEncounterWith(qty, treatmentName, true)
}

func (c *clinicContext) aDraftEncounterWith(qty int, treatmentName string) error {
	return c.anEncounterWith(qty, treatmentName, false)
}

func (c *clinicContext) cataloguePriceChangesTo(treatmentName string, price int) error {
	treatment, ok := c.treatments[treatmentName]
	if !ok {
		return fmt.Errorf("unknown treatment %q", treatmentName)
	}
	p := decimal.NewFromInt(int64(price))
	if err := treatment.SetDefaultPrice(&p); err != nil {
		return err
	}
	return c.repos.Treatments.Update(context.Background(), treatment)
}

// When steps

func (c *clinicContext) iPayTheSale() error {
	c.payErr = c.transitionSale(billing.SaleStatusPaid, "")
	return nil
}

func (c *clinicContext) iPayTheSaleAgain() error {
	c.secondPayErr = c.transitionSale(billing.SaleStatusPaid, "")
	return nil
}

func (c *clinicContext) iRefundTheSale(reason string) error {
	c.refundErr = c.transitionSale(billing.SaleStatusRefunded, reason)
	return nil
}

func (c *clinicContext) iGenerateProposal() error {
	result, err := c.generate.Handle(context.Background(), &chargeCmd.GenerateProposalCommand{
		EncounterID: c.encounter.ID(),
		Actor:       c.practitioner,
	})
	c.proposalErr = err
	if err == nil {
		resp := result.(*chargeCmd.GenerateProposalResponse)
		c.proposalID = resp.ProposalID
		c.proposalTotal = resp.TotalAmount
	}
	return nil
}

func (c *clinicContext) iGenerateProposalAgain() error {
	_, err := c.generate.Handle(context.Background(), &chargeCmd.GenerateProposalCommand{
		EncounterID: c.encounter.ID(),
		Actor:       c.practitioner,
	})
	c.secondProposal = err
	return nil
}

func (c *clinicContext) iConvertProposal() error {
	result, err := c.convert.Handle(context.Background(), &chargeCmd.ConvertToSaleCommand{
		ProposalID:    c.proposalID,
		LegalEntityID: "clinic-1",
		Actor:         c.reception,
	})
	if err != nil {
		return err
	}
	resp := result.(*chargeCmd.ConvertToSaleResponse)
	c.convertedSaleID = resp.SaleID
	c.saleID = resp.SaleID
	c.saleRowVersion = resp.RowVersion
	return nil
}

func (c *clinicContext) iConvertProposalAgain() error {
	_, err := c.convert.Handle(context.Background(), &chargeCmd.ConvertToSaleCommand{
		ProposalID:    c.proposalID,
		LegalEntityID: "clinic-1",
		Actor:         c.reception,
	})
	c.secondConversion = err
	return nil
}

func (c *clinicContext) iReceiveUnits(qty int, sku, batchNumber string, days int) error {
	product, ok := c.products[sku]
	if !ok {
		return fmt.Errorf("unknown product %q", sku)
	}
	expiry := time.Now().AddDate(0, 0, days)
	_, err := c.receive.Handle(context.Background(), &inventoryCmd.ReceiveStockCommand{
		ProductID:    product.ID(),
		LocationCode: c.location.Code(),
		BatchNumber:  batchNumber,
		ExpiryDate:   &expiry,
		Quantity:     qty,
		Reference:    "DELIVERY-1",
		Actor:        c.clinicalOps,
	})
	if err != nil {
		return err
	}
	batch, err := c.repos.Batches.FindByProductAndNumber(context.Background(), product.ID(), batchNumber)
	if err != nil {
		return err
	}
	c.batches[batchNumber] = batch
	return nil
}

func (c *clinicContext) iBookAdjustment(qty int, batchNumber string) error {
	batch, ok := c.batches[batchNumber]
	if !ok {
		return fmt.Errorf("unknown batch %q", batchNumber)
	}
	_, err := c.adjust.Handle(context.Background(), &inventoryCmd.AdjustStockCommand{
		ProductID:    batch.ProductID(),
		LocationCode: c.location.Code(),
		BatchID:      batch.ID(),
		Quantity:     qty,
		Reason:       "Cycle count correction",
		Actor:        c.clinicalOps,
	})
	c.adjustErr = err
	return nil
}

// Then steps

func (c *clinicContext) theSaleShouldBe(status string) error {
	sale, err := c.repos.Sales.FindByID(context.Background(), c.saleID)
	if err != nil {
		return err
	}
	if string(sale.Status()) != status {
		return fmt.Errorf("expected sale status %s, got %s", status, sale.Status())
	}
	return nil
}

func (c *clinicContext) paymentMadeMoves(count int) error {
	if c.payErr != nil {
		return fmt.Errorf("payment failed: %w", c.payErr)
	}
	if c.movesMade != count {
		return fmt.Errorf("expected %d stock moves, got %d", count, c.movesMade)
	}
	return nil
}

func (c *clinicContext) batchShouldHaveOnHand(batchNumber string, qty int) error {
	batch, ok := c.batches[batchNumber]
	if !ok {
		return fmt.Errorf("unknown batch %q", batchNumber)
	}
	rows, err := c.repos.Ledger.OnHand(context.Background(), batch.ProductID(), c.location.ID())
	if err != nil {
		return err
	}
	actual := 0
	for _, row := range rows {
		if row.BatchID == batch.ID() {
			actual = row.Quantity
		}
	}
	if actual != qty {
		return fmt.Errorf("expected %d units in batch %s, got %d", qty, batchNumber, actual)
	}
	return nil
}

func (c *clinicContext) paymentFailedInsufficientStock() error {
	var stockErr *shared.InsufficientStockError
	if !errors.As(c.payErr, &stockErr) {
		return fmt.Errorf("expected insufficient stock error, got %v", c.payErr)
	}
	return nil
}

func (c *clinicContext) paymentFailedExpiredOnly() error {
	var expiredErr *shared.ExpiredBatchOnlyError
	if !errors.As(c.payErr, &expiredErr) {
		return fmt.Errorf("expected expired-batch-only error, got %v", c.payErr)
	}
	return nil
}

func (c *clinicContext) secondPaymentRejected() error {
	if c.secondPayErr == nil {
		return fmt.Errorf("expected the second payment to fail")
	}
	return nil
}

func (c *clinicContext) refundRejected() error {
	if c.refundErr == nil {
		return fmt.Errorf("expected the refund to fail")
	}
	return nil
}

func (c *clinicContext) proposalTotalShouldBe(total string) error {
	if c.proposalErr != nil {
		return fmt.Errorf("proposal generation failed: %w", c.proposalErr)
	}
	if c.proposalTotal != total {
		return fmt.Errorf("expected proposal total %s, got %s", total, c.proposalTotal)
	}
	return nil
}

func (c *clinicContext) secondProposalDuplicate() error {
	var idemErr *shared.IdempotencyViolationError
	if !errors.As(c.secondProposal, &idemErr) {
		return fmt.Errorf("expected an idempotency violation, got %v", c.secondProposal)
	}
	return nil
}

func (c *clinicContext) proposalRejectedNotFinalized() error {
	var opErr *shared.InvalidOperationError
	if !errors.As(c.proposalErr, &opErr) {
		return fmt.Errorf("expected an invalid operation error, got %v", c.proposalErr)
	}
	return nil
}

func (c *clinicContext) draftSaleWithTotal(total string) error {
	sale, err := c.repos.Sales.FindByID(context.Background(), c.convertedSaleID)
	if err != nil {
		return err
	}
	if sale.Status() != billing.SaleStatusDraft {
		return fmt.Errorf("expected a draft sale, got %s", sale.Status())
	}
	expected, err := decimal.NewFromString(total)
	if err != nil {
		return err
	}
	if !sale.Total().Equal(expected) {
		return fmt.Errorf("expected sale total %s, got %s", total, sale.Total())
	}
	return nil
}

func (c *clinicContext) payingConvertedSaleMakesNoMoves() error {
	if err := c.transitionSale(billing.SaleStatusPending, ""); err != nil {
		return err
	}
	if err := c.transitionSale(billing.SaleStatusPaid, ""); err != nil {
		return err
	}
	if c.movesMade != 0 {
		return fmt.Errorf("expected no stock moves, got %d", c.movesMade)
	}
	return nil
}

func (c *clinicContext) secondConversionReportsExisting() error {
	var converted *shared.AlreadyConvertedError
	if !errors.As(c.secondConversion, &converted) {
		return fmt.Errorf("expected an already-converted error, got %v", c.secondConversion)
	}
	if converted.SaleID != c.convertedSaleID {
		return fmt.Errorf("expected the error to name sale %s, got %s", c.convertedSaleID, converted.SaleID)
	}
	return nil
}

func (c *clinicContext) adjustmentFailedInsufficientStock() error {
	var stockErr *shared.InsufficientStockError
	if !errors.As(c.adjustErr, &stockErr) {
		return fmt.Errorf("expected insufficient stock error, got %v", c.adjustErr)
	}
	return nil
}

// InitializeClinicScenario registers the clinic step definitions
func InitializeClinicScenario(sc *godog.ScenarioContext) {
	c := &clinicContext{}

	sc.Before(func(ctx context.Context, scenario *godog.Scenario) (context.Context, error) {
		return ctx, c.reset()
	})

	sc.Step(`^a stock location "([^"]*)"$`, c.aStockLocation)
	sc.Step(`^a registered patient$`, c.aRegisteredPatient)
	sc.Step(`^a product "([^"]*)"$`, c.aProduct)
	sc.Step(`^a batch "([^"]*)" of "([^"]*)" with (\d+) units? expiring in (\d+) days$`, c.aBatchExpiringIn)
	sc.Step(`^a batch "([^"]*)" of "([^"]*)" with (\d+) units that expired (\d+) days ago$`, c.aBatchExpiredAgo)
	sc.Step(`^a pending sale for (\d+) units? of "([^"]*)"$`, c.aPendingSale)
	sc.Step(`^a treatment "([^"]*)" priced at (\d+)$`, c.aTreatmentPricedAt)
	sc.Step(`^a finalized encounter with (\d+) x "([^"]*)"$`, c.aFinalizedEncounterWith)
	sc.Step(`^a draft encounter with (\d+) x "([^"]*)"$`, c.aDraftEncounterWith)
	sc.Step(`^the catalogue price of "([^"]*)" changes to (\d+)$`, c.cataloguePriceChangesTo)

	sc.Step(`^I pay the sale$`, c.iPayTheSale)
	sc.Step(`^I pay the sale again$`, c.iPayTheSaleAgain)
	sc.Step(`^I refund the sale with reason "([^"]*)"$`, c.iRefundTheSale)
	sc.Step(`^I generate a charge proposal$`, c.iGenerateProposal)
	sc.Step(`^I generate a charge proposal again$`, c.iGenerateProposalAgain)
	sc.Step(`^I convert the proposal to a sale$`, c.iConvertProposal)
	sc.Step(`^I convert the proposal to a sale again$`, c.iConvertProposalAgain)
	sc.Step(`^I receive (\d+) units of "([^"]*)" into batch "([^"]*)" expiring in (\d+) days$`, c.iReceiveUnits)
	sc.Step(`^I book a manual adjustment of (-?\d+) units against batch "([^"]*)"$`, c.iBookAdjustment)

	sc.Step(`^the sale should be "([^"]*)"$`, c.theSaleShouldBe)
	sc.Step(`^the payment should have made (\d+) stock moves$`, c.paymentMadeMoves)
	sc.Step(`^batch "([^"]*)" should have (\d+) units on hand$`, c.batchShouldHaveOnHand)
	sc.Step(`^the payment should fail with insufficient stock$`, c.paymentFailedInsufficientStock)
	sc.Step(`^the payment should fail because only expired stock remains$`, c.paymentFailedExpiredOnly)
	sc.Step(`^the second payment should be rejected$`, c.secondPaymentRejected)
	sc.Step(`^the refund should be rejected$`, c.refundRejected)
	sc.Step(`^the proposal total should be "([^"]*)"$`, c.proposalTotalShouldBe)
	sc.Step(`^the second proposal should be rejected as a duplicate$`, c.secondProposalDuplicate)
	sc.Step(`^the proposal should be rejected because the encounter is not finalized$`, c.proposalRejectedNotFinalized)
	sc.Step(`^a draft sale should exist with total "([^"]*)"$`, c.draftSaleWithTotal)
	sc.Step(`^paying the converted sale should make no stock moves$`, c.payingConvertedSaleMakesNoMoves)
	sc.Step(`^the second conversion should report the existing sale$`, c.secondConversionReportsExisting)
	sc.Step(`^the adjustment should fail with insufficient stock$`, c.adjustmentFailedInsufficientStock)
}
