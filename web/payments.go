package web

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"hlxportal/db"

	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"
)

// notifyTimeout bounds the notification fan-out after a payment, which runs
// detached from the request.
const notifyTimeout = 30 * time.Second

// handleConfirmPayment records a payment outcome against an instruction and,
// in the same database transaction, attaches and closes the prospect's deal.
// The notification fan-out happens after the transaction commits; delivery
// failure never fails the request.
func (web *WebApp) handleConfirmPayment() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ref := mux.Vars(r)["ref"]

		var update db.PaymentUpdate
		if err := web.readJSON(r, &update); err != nil {
			web.clientError(w, err.Error(), http.StatusBadRequest)
			return
		}
		update.InstructionRef = ref
		if update.PaymentMethod == "" {
			web.clientError(w, "paymentMethod is required", http.StatusBadRequest)
			return
		}

		instruction, err := web.db.ConfirmPayment(r.Context(), update)
		if errors.Is(err, sql.ErrNoRows) {
			web.notFound(w, "no instruction found")
			return
		}
		if err != nil {
			web.ServerError(w, r, err)
			return
		}

		web.notifications.Add(1)
		go func() {
			defer web.notifications.Done()
			web.notifyPayment(instruction, update)
		}()

		web.writeJSON(w, http.StatusOK, instruction)
	})
}

// notifyPayment fans out the notification mails for a payment outcome. Each
// mail is attempted independently; errors are logged by the mailer and
// otherwise dropped.
func (web *WebApp) notifyPayment(instruction *db.Instruction, update db.PaymentUpdate) {
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	documents, err := web.db.DocumentsGet(ctx, instruction.InstructionRef)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		web.log.Error("could not fetch documents for notification",
			"ref", instruction.InstructionRef, "error", err)
	}

	cardFailure := update.PaymentMethod == "card" && !update.Success

	g, ctx := errgroup.WithContext(ctx)
	if cardFailure {
		g.Go(func() error {
			return web.mailer.ClientFailure(ctx, instruction)
		})
	} else {
		g.Go(func() error {
			return web.mailer.ClientSuccess(ctx, instruction, documents)
		})
		g.Go(func() error {
			return web.mailer.FeeEarnerNotify(ctx, instruction, documents)
		})
		if update.PaymentMethod != "card" {
			g.Go(func() error {
				return web.mailer.AccountsPending(ctx, instruction)
			})
		}
	}
	if err := g.Wait(); err != nil {
		web.log.Error("payment notification error",
			"ref", instruction.InstructionRef, "error", err)
	}
}
