package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/suteetoe/tenant-auth-service/internal/model"
	"github.com/suteetoe/tenant-auth-service/internal/repository"
	"github.com/suteetoe/tenant-auth-service/internal/service"
	"github.com/suteetoe/tenant-auth-service/pkg/cache"
	"github.com/suteetoe/tenant-auth-service/pkg/config"
	"github.com/suteetoe/tenant-auth-service/pkg/database"
	"github.com/suteetoe/tenant-auth-service/pkg/events"
	"github.com/suteetoe/tenant-auth-service/pkg/logger"
)

const usage = `usage: admin <command> [flags]

commands:
  create-tenant   -name NAME -subdomain SUB [-plan PLAN] [-policy TEXT]
  create-user     -email EMAIL -password PASS [-tenant SUB] [-staff] [-superuser]
  record-payment  -tenant SUB -provider stripe|paypal -plan PLAN -amount N [-status STATUS] [-subscription ID]
  list-payments   -tenant SUB
  delete-tenant   -subdomain SUB
`

var errUsage = errors.New("invalid usage")

// app holds the services the subcommands operate on
type app struct {
	tenants  *service.TenantService
	auth     *service.AuthService
	payments *service.PaymentService
	out      io.Writer
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to load configuration:", err)
		os.Exit(1)
	}
	if err := logger.InitLogger(cfg); err != nil {
		fmt.Fprintln(os.Stderr, "Failed to initialize logger:", err)
		os.Exit(1)
	}
	log := logger.GetLogger()
	defer log.Sync()

	db, err := database.InitDB(&cfg.DB)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer database.Close(db)

	if err := database.MigrateModels(db, log, model.AllModels()...); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.NATS.URL != "" {
		natsPublisher, err := events.NewNATSPublisher(cfg.NATS.URL, cfg.ServiceName+"-admin", log)
		if err != nil {
			log.Fatal("Failed to connect to NATS", zap.Error(err))
		}
		publisher = natsPublisher
	}
	defer publisher.Close()

	ctx := logger.WithContext(context.Background(), log)

	// Tenant writes must evict the entries the server caches in redis
	var tenantCache repository.Cache
	if cfg.Redis.URL != "" {
		redisClient, err := cache.NewClient(ctx, cfg.Redis.URL)
		if err != nil {
			log.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer redisClient.Close()
		tenantCache = redisClient
	}

	a := newApp(
		repository.NewTenantRepository(db),
		repository.NewUserRepository(db),
		repository.NewPaymentRepository(db),
		tenantCache, cfg.Redis.CacheTTL,
		publisher, log, os.Stdout,
	)

	if err := a.run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// newApp builds the services over the given repositories. A non-nil
// tenantCache puts the shared tenant cache in front of tenant writes.
func newApp(
	tenants repository.TenantRepository,
	users repository.UserRepository,
	payments repository.PaymentRepository,
	tenantCache repository.Cache,
	ttl time.Duration,
	publisher events.Publisher,
	log *zap.Logger,
	out io.Writer,
) *app {
	if tenantCache != nil {
		cached := repository.NewCachedTenantRepository(tenants, tenantCache, ttl, log)
		tenants = cached
		payments = repository.NewCachedPaymentRepository(payments, cached, log)
	}

	return &app{
		tenants:  service.NewTenantService(tenants, publisher),
		auth:     service.NewAuthService(users, publisher),
		payments: service.NewPaymentService(payments, publisher),
		out:      out,
	}
}

// run dispatches args to a subcommand
func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	switch args[0] {
	case "create-tenant":
		return a.createTenant(ctx, args[1:])
	case "create-user":
		return a.createUser(ctx, args[1:])
	case "record-payment":
		return a.recordPayment(ctx, args[1:])
	case "list-payments":
		return a.listPayments(ctx, args[1:])
	case "delete-tenant":
		return a.deleteTenant(ctx, args[1:])
	default:
		return fmt.Errorf("unknown command %q: %w", args[0], errUsage)
	}
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parse(fs *flag.FlagSet, args []string, required ...string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%s: %v: %w", fs.Name(), err, errUsage)
	}
	for _, name := range required {
		if strings.TrimSpace(fs.Lookup(name).Value.String()) == "" {
			return fmt.Errorf("%s: -%s is required: %w", fs.Name(), name, errUsage)
		}
	}
	return nil
}

func (a *app) createTenant(ctx context.Context, args []string) error {
	fs := newFlagSet("create-tenant")
	name := fs.String("name", "", "tenant name")
	subdomain := fs.String("subdomain", "", "tenant subdomain")
	plan := fs.String("plan", string(model.PlanFree), "subscription plan")
	policy := fs.String("policy", "", "tenant policy text")
	if err := parse(fs, args, "name", "subdomain"); err != nil {
		return err
	}

	tenant, err := a.tenants.Create(ctx, service.TenantInput{
		Name:      *name,
		Subdomain: *subdomain,
		Plan:      *plan,
		Policy:    *policy,
	})
	if err != nil {
		return err
	}
	return a.print(tenant)
}

func (a *app) createUser(ctx context.Context, args []string) error {
	fs := newFlagSet("create-user")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	tenantSub := fs.String("tenant", "", "owning tenant subdomain, empty for a platform account")
	staff := fs.Bool("staff", false, "grant staff access")
	superuser := fs.Bool("superuser", false, "grant superuser access")
	if err := parse(fs, args, "email", "password"); err != nil {
		return err
	}

	in := service.CreateUserInput{
		Email:       *email,
		Password:    *password,
		IsStaff:     *staff,
		IsSuperuser: *superuser,
	}
	if *tenantSub != "" {
		tenant, err := a.tenants.GetBySubdomain(ctx, *tenantSub)
		if err != nil {
			return err
		}
		in.TenantID = &tenant.ID
	}

	user, err := a.auth.CreateUser(ctx, in)
	if err != nil {
		return err
	}
	return a.print(user.Public())
}

func (a *app) recordPayment(ctx context.Context, args []string) error {
	fs := newFlagSet("record-payment")
	tenantSub := fs.String("tenant", "", "tenant subdomain")
	provider := fs.String("provider", "", "payment provider")
	plan := fs.String("plan", "", "purchased plan")
	amount := fs.String("amount", "", "amount paid")
	status := fs.String("status", string(model.PaymentStatusActive), "payment status")
	subscription := fs.String("subscription", "", "provider subscription id")
	if err := parse(fs, args, "tenant", "provider", "plan", "amount"); err != nil {
		return err
	}

	tenant, err := a.tenants.GetBySubdomain(ctx, *tenantSub)
	if err != nil {
		return err
	}

	payment, err := a.payments.RecordPayment(ctx, tenant.ID, service.PaymentInput{
		Provider:               *provider,
		Plan:                   *plan,
		Amount:                 *amount,
		Status:                 *status,
		ProviderSubscriptionID: *subscription,
	})
	if err != nil {
		return err
	}
	return a.print(payment)
}

func (a *app) listPayments(ctx context.Context, args []string) error {
	fs := newFlagSet("list-payments")
	tenantSub := fs.String("tenant", "", "tenant subdomain")
	if err := parse(fs, args, "tenant"); err != nil {
		return err
	}

	tenant, err := a.tenants.GetBySubdomain(ctx, *tenantSub)
	if err != nil {
		return err
	}

	payments, err := a.payments.ListPayments(ctx, tenant.ID)
	if err != nil {
		return err
	}
	return a.print(payments)
}

func (a *app) deleteTenant(ctx context.Context, args []string) error {
	fs := newFlagSet("delete-tenant")
	subdomain := fs.String("subdomain", "", "tenant subdomain")
	if err := parse(fs, args, "subdomain"); err != nil {
		return err
	}

	if err := a.tenants.Delete(ctx, *subdomain, nil); err != nil {
		return err
	}
	_, err := fmt.Fprintf(a.out, "tenant %q deleted\n", *subdomain)
	return err
}

func (a *app) print(v interface{}) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
