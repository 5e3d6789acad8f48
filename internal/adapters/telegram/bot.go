package telegram

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"settlement-engine/internal/app"
	"settlement-engine/internal/core"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"
	"github.com/shopspring/decimal"
)

// Bot is the Telegram adapter: employees query their settlement balance and
// paste sales messages to get a structured order draft back. It is a thin
// presentation layer over ApplicationService, same as the web adapter.
type Bot struct {
	api *tgbotapi.BotAPI
	svc app.ApplicationService
}

func NewBot(token string, svc app.ApplicationService) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telegram bot: %w", err)
	}
	log.Printf("telegram bot authorized as %s", api.Self.UserName)
	return &Bot{api: api, svc: svc}, nil
}

// Run long-polls for updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	text := strings.TrimSpace(msg.Text)
	var reply string
	switch {
	case text == "/start" || text == "/help":
		reply = "Commands:\n/balance - your pending and settled profit\n/invoices - your recent settlement invoices\nPaste a sales message to draft an order."
	case text == "/balance":
		reply = b.balanceReply(ctx, msg.Chat.ID)
	case text == "/invoices":
		reply = b.invoicesReply(ctx, msg.Chat.ID)
	default:
		reply = b.draftReply(ctx, text)
	}

	out := tgbotapi.NewMessage(msg.Chat.ID, reply)
	if _, err := b.api.Send(out); err != nil {
		log.Printf("telegram send failed for chat %d: %v", msg.Chat.ID, err)
	}
}

func (b *Bot) balanceReply(ctx context.Context, chatID int64) string {
	summary, err := b.svc.EmployeeSummary(ctx, chatID)
	if err != nil {
		return "This chat is not linked to an employee account."
	}

	pending := decimal.Zero
	for _, r := range summary.Pending {
		pending = pending.Add(r.EmployeeProfit)
	}
	settled := decimal.Zero
	for _, r := range summary.Settled {
		settled = settled.Add(r.EmployeeProfit)
	}

	return fmt.Sprintf("%s (%s)\nPending: %s across %d orders\nSettled: %s across %d orders",
		summary.Employee.Name, summary.Employee.Code,
		pending.StringFixed(0), len(summary.Pending),
		settled.StringFixed(0), len(summary.Settled))
}

func (b *Bot) invoicesReply(ctx context.Context, chatID int64) string {
	summary, err := b.svc.EmployeeSummary(ctx, chatID)
	if err != nil {
		return "This chat is not linked to an employee account."
	}

	list, err := b.svc.ListSettlementInvoices(ctx, app.WindowRequest{Period: string(core.PeriodYear)})
	if err != nil {
		return "Could not load settlement invoices, try again later."
	}

	var sb strings.Builder
	count := 0
	for _, inv := range list.Invoices {
		if inv.EmployeeID != summary.Employee.ID {
			continue
		}
		date := "-"
		if inv.Date != nil {
			date = inv.Date.In(core.BusinessZone).Format("2006-01-02")
		}
		fmt.Fprintf(&sb, "%s  %s  %s\n", inv.InvoiceNumber, inv.TotalAmount.StringFixed(0), date)
		if count++; count == 10 {
			break
		}
	}
	if count == 0 {
		return "No settlement invoices for you this year."
	}
	return "Your settlements this year:\n" + sb.String()
}

func (b *Bot) draftReply(ctx context.Context, text string) string {
	result, err := b.svc.ParseOrderMessage(ctx, text)
	if err != nil {
		return "Could not read an order from that message: " + err.Error()
	}

	d := result.Draft
	var sb strings.Builder
	fmt.Fprintf(&sb, "Order draft for %s\n", d.CustomerName)
	if d.CustomerPhone != "" {
		fmt.Fprintf(&sb, "Phone: %s\n", d.CustomerPhone)
	}
	if d.Address != "" {
		fmt.Fprintf(&sb, "Address: %s\n", d.Address)
	}
	for _, it := range d.Items {
		fmt.Fprintf(&sb, "- %s x%d @ %s\n", it.ProductName, it.Quantity, it.UnitSellPrice)
	}
	fmt.Fprintf(&sb, "Delivery fee: %s\nTotal: %s\nConfidence: %.0f%%",
		d.DeliveryFee, d.Total().StringFixed(0), d.Confidence*100)
	return sb.String()
}
