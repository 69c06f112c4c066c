// Package card provides business logic for payment cards: issuing, PIN
// activation, blocking and cancellation, and authorizing purchases against
// either the linked account (debit, prepaid) or the card's credit line.
package card

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/corebank/pkg/config"
	"github.com/amirasaad/corebank/pkg/domain"
	"github.com/amirasaad/corebank/pkg/domain/account"
	"github.com/amirasaad/corebank/pkg/domain/card"
	"github.com/amirasaad/corebank/pkg/money"
	"github.com/amirasaad/corebank/pkg/numgen"
	"github.com/amirasaad/corebank/pkg/repository"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// maxNumberAttempts bounds the re-draws when a generated card number
// collides with an existing one.
const maxNumberAttempts = 5

var validate = validator.New(validator.WithRequiredStructEnabled())

// Service provides business logic for card operations.
type Service struct {
	uow    repository.UnitOfWork
	audit  domain.AuditRecorder
	gen    numgen.Generator
	logger *slog.Logger
}

// NewService creates a new Service with the provided dependencies.
func NewService(deps config.Deps) *Service {
	return &Service{
		uow:    deps.Uow,
		audit:  deps.Audit,
		gen:    deps.Gen,
		logger: deps.Logger,
	}
}

// IssueCommand carries the inputs for issuing a card. The PIN is chosen by
// the holder at issue time and must be presented again to activate.
type IssueCommand struct {
	UserID      uuid.UUID `validate:"required"`
	AccountID   uuid.UUID `validate:"required"`
	HolderName  string    `validate:"required"`
	Type        card.Type `validate:"required,oneof=DEBIT CREDIT PREPAID"`
	PIN         string    `validate:"required,len=4,numeric"`
	CreditLimit money.Money
}

// Issue issues a new card in PENDING_ACTIVATION linked to one of the
// holder's accounts, drawing candidate card numbers until one is free.
func (s *Service) Issue(ctx context.Context, cmd IssueCommand) (c *card.Card, err error) {
	if err = validate.Struct(cmd); err != nil {
		return nil, err
	}
	logger := s.logger.With("userID", cmd.UserID, "accountID", cmd.AccountID, "type", cmd.Type)
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		accountRepo, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		cardRepo, err := uow.CardRepository()
		if err != nil {
			return err
		}
		a, err := accountRepo.Get(ctx, cmd.AccountID)
		if err != nil {
			return err
		}
		if err = a.ValidateOwner(cmd.UserID); err != nil {
			return err
		}
		if err = a.EnsureOperational(); err != nil {
			return err
		}
		number, err := s.freeCardNumber(ctx, cardRepo)
		if err != nil {
			return err
		}
		c, err = card.Issue(card.IssueSpec{
			UserID:      cmd.UserID,
			AccountID:   cmd.AccountID,
			HolderName:  cmd.HolderName,
			Type:        cmd.Type,
			Number:      number,
			CVV:         s.gen.CVV(),
			PIN:         cmd.PIN,
			CreditLimit: cmd.CreditLimit,
		}, time.Now())
		if err != nil {
			return err
		}
		return cardRepo.Create(ctx, c)
	})
	if err != nil {
		c = nil
		logger.Error("Issue failed", "error", err)
		return
	}
	logger.Info("Issue successful", "cardID", c.ID, "number", c.MaskedNumber())
	s.audit.Record(ctx, domain.AuditEntry{
		ActorID:     cmd.UserID,
		Action:      "CARD_ISSUED",
		EntityType:  "Card",
		EntityID:    c.ID.String(),
		After:       fmt.Sprintf("number=%s type=%s", c.MaskedNumber(), c.Type),
		Description: "Card issued",
		Module:      "CARDS",
		Severity:    domain.SeverityLow,
		CreatedAt:   time.Now(),
	})
	return
}

func (s *Service) freeCardNumber(ctx context.Context, repo repository.CardRepository) (string, error) {
	for range maxNumberAttempts {
		number := s.gen.CardNumber()
		exists, err := repo.ExistsByNumber(ctx, number)
		if err != nil {
			return "", err
		}
		if !exists {
			return number, nil
		}
	}
	return "", domain.ErrDuplicateReference
}

// Activate activates a pending card after verifying the holder's PIN.
func (s *Service) Activate(ctx context.Context, userID, cardID uuid.UUID, pin string) error {
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.CardRepository()
		if err != nil {
			return err
		}
		c, err := repo.Get(ctx, cardID)
		if err != nil {
			return err
		}
		if err = c.ValidateOwner(userID); err != nil {
			return err
		}
		if err = c.Activate(pin); err != nil {
			return err
		}
		return repo.Update(ctx, c)
	})
	if err != nil {
		s.logger.Error("Activate failed", "cardID", cardID, "error", err)
		return err
	}
	s.logger.Info("Activate successful", "cardID", cardID)
	s.audit.Record(ctx, domain.AuditEntry{
		ActorID:    userID,
		Action:     "CARD_ACTIVATED",
		EntityType: "Card",
		EntityID:   cardID.String(),
		Module:     "CARDS",
		Severity:   domain.SeverityLow,
		CreatedAt:  time.Now(),
	})
	return nil
}

// Block suspends a card, rejecting authorizations until Unblock.
func (s *Service) Block(ctx context.Context, userID, cardID uuid.UUID, reason string) error {
	return s.transition(ctx, userID, cardID, reason, "CARD_BLOCKED", domain.SeverityHigh,
		func(c *card.Card) error { return c.Block() })
}

// Unblock reinstates a blocked card.
func (s *Service) Unblock(ctx context.Context, userID, cardID uuid.UUID, reason string) error {
	return s.transition(ctx, userID, cardID, reason, "CARD_UNBLOCKED", domain.SeverityMedium,
		func(c *card.Card) error { return c.Unblock() })
}

// Cancel terminally retires a card.
func (s *Service) Cancel(ctx context.Context, userID, cardID uuid.UUID, reason string) error {
	return s.transition(ctx, userID, cardID, reason, "CARD_CANCELLED", domain.SeverityMedium,
		func(c *card.Card) error { return c.Cancel() })
}

func (s *Service) transition(
	ctx context.Context,
	userID, cardID uuid.UUID,
	reason, action string,
	severity domain.AuditSeverity,
	fn func(*card.Card) error,
) error {
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.CardRepository()
		if err != nil {
			return err
		}
		c, err := repo.Get(ctx, cardID)
		if err != nil {
			return err
		}
		if err = c.ValidateOwner(userID); err != nil {
			return err
		}
		if err = fn(c); err != nil {
			return err
		}
		return repo.Update(ctx, c)
	})
	if err != nil {
		s.logger.Error("card transition failed", "cardID", cardID, "action", action, "error", err)
		return err
	}
	s.logger.Info("card transition successful", "cardID", cardID, "action", action)
	s.audit.Record(ctx, domain.AuditEntry{
		ActorID:     userID,
		Action:      action,
		EntityType:  "Card",
		EntityID:    cardID.String(),
		Description: reason,
		Module:      "CARDS",
		Severity:    severity,
		CreatedAt:   time.Now(),
	})
	return nil
}

// AuthorizeCommand carries the inputs for a purchase authorization.
type AuthorizeCommand struct {
	UserID      uuid.UUID `validate:"required"`
	CardID      uuid.UUID `validate:"required"`
	Amount      money.Money
	Merchant    card.Merchant `validate:"required"`
	Flags       card.TransactionFlags
	Description string
}

// Authorize decides a purchase against the card's status, expiry, limits and
// channel settings, then funds it: debit and prepaid cards draw on the linked
// account, credit cards draw on the card's credit line. A granted
// authorization gets a six-character code and a recorded card transaction.
func (s *Service) Authorize(ctx context.Context, cmd AuthorizeCommand) (tx *card.Transaction, err error) {
	if err = validate.Struct(cmd); err != nil {
		return nil, err
	}
	logger := s.logger.With("userID", cmd.UserID, "cardID", cmd.CardID, "amount", cmd.Amount)
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		cardRepo, err := uow.CardRepository()
		if err != nil {
			return err
		}
		accountRepo, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		txRepo, err := uow.TransactionRepository()
		if err != nil {
			return err
		}
		cardTxRepo, err := uow.CardTransactionRepository()
		if err != nil {
			return err
		}
		c, err := cardRepo.Get(ctx, cmd.CardID)
		if err != nil {
			return err
		}
		if err = c.ValidateOwner(cmd.UserID); err != nil {
			return err
		}
		now := time.Now()
		if err = c.CanAuthorize(cmd.Amount, now); err != nil {
			return err
		}
		if err = checkChannels(c, cmd.Flags); err != nil {
			return err
		}

		if c.Type == card.TypeCredit {
			if err = c.DrawCredit(cmd.Amount); err != nil {
				return err
			}
		} else {
			a, err := accountRepo.GetForUpdate(ctx, c.AccountID)
			if err != nil {
				return err
			}
			if err = a.EnsureOperational(); err != nil {
				return err
			}
			// Card purchases never dip into the minimum-balance or
			// overdraft cushion; only cleared funds are spendable.
			if a.AvailableBalance.LessThan(cmd.Amount) {
				return domain.ErrInsufficientFunds
			}
			if err = a.Debit(cmd.Amount); err != nil {
				return err
			}
			if err = accountRepo.Update(ctx, a); err != nil {
				return err
			}
			ledger := account.NewTransactionFromData(
				uuid.New(),
				s.gen.TransactionReference(),
				account.TransactionCardPayment,
				account.TransactionCompleted,
				cmd.Amount,
				&a.ID, nil,
				a.Balance,
				cmd.Merchant.Name,
				now,
			)
			if err = txRepo.Create(ctx, ledger); err != nil {
				return err
			}
		}
		if err = cardRepo.Update(ctx, c); err != nil {
			return err
		}

		tx = card.NewTransaction(
			c.ID,
			s.gen.TransactionReference(),
			s.gen.AuthorizationCode(),
			cmd.Amount,
			cmd.Merchant,
			cmd.Flags,
			cmd.Description,
			now,
		)
		return cardTxRepo.Create(ctx, tx)
	})
	if err != nil {
		tx = nil
		logger.Error("Authorize declined", "error", err)
		return
	}
	logger.Info("Authorize granted", "authCode", tx.AuthorizationCode, "merchant", cmd.Merchant.Name)
	s.audit.Record(ctx, domain.AuditEntry{
		ActorID:     cmd.UserID,
		Action:      "CARD_AUTHORIZED",
		EntityType:  "Card",
		EntityID:    cmd.CardID.String(),
		After:       fmt.Sprintf("amount=%s merchant=%s auth=%s", cmd.Amount, cmd.Merchant.Name, tx.AuthorizationCode),
		Description: cmd.Description,
		Module:      "CARDS",
		Severity:    domain.SeverityLow,
		CreatedAt:   time.Now(),
	})
	return
}

// checkChannels rejects a purchase arriving over a channel the holder has
// disabled on the card.
func checkChannels(c *card.Card, flags card.TransactionFlags) error {
	if flags.Contactless && !c.ContactlessEnabled {
		return domain.ErrInvalidOperation
	}
	if flags.Online && !c.OnlineEnabled {
		return domain.ErrInvalidOperation
	}
	if flags.International && !c.InternationalEnabled {
		return domain.ErrInvalidOperation
	}
	return nil
}

// Get returns a card after verifying ownership.
func (s *Service) Get(ctx context.Context, userID, cardID uuid.UUID) (c *card.Card, err error) {
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.CardRepository()
		if err != nil {
			return err
		}
		c, err = repo.Get(ctx, cardID)
		if err != nil {
			return err
		}
		return c.ValidateOwner(userID)
	})
	if err != nil {
		c = nil
	}
	return
}

// ListByUser returns every card belonging to a user.
func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID) (cards []*card.Card, err error) {
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.CardRepository()
		if err != nil {
			return err
		}
		cards, err = repo.ListByUser(ctx, userID)
		return err
	})
	return
}

// Transactions returns a card's transaction history, after verifying
// ownership.
func (s *Service) Transactions(ctx context.Context, userID, cardID uuid.UUID) (txs []*card.Transaction, err error) {
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		cardRepo, err := uow.CardRepository()
		if err != nil {
			return err
		}
		cardTxRepo, err := uow.CardTransactionRepository()
		if err != nil {
			return err
		}
		c, err := cardRepo.Get(ctx, cardID)
		if err != nil {
			return err
		}
		if err = c.ValidateOwner(userID); err != nil {
			return err
		}
		txs, err = cardTxRepo.ListByCard(ctx, cardID)
		return err
	})
	if err != nil {
		txs = nil
	}
	return
}
