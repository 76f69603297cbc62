package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/helashop/storefront-go/internal/auth"
	"github.com/helashop/storefront-go/internal/cart"
	"github.com/helashop/storefront-go/internal/catalog"
	"github.com/helashop/storefront-go/internal/httpclient"
	"github.com/helashop/storefront-go/internal/orders"
	"github.com/helashop/storefront-go/internal/payments"
	"github.com/helashop/storefront-go/internal/session"
	"github.com/helashop/storefront-go/internal/transport"
	"github.com/helashop/storefront-go/internal/users"
	"github.com/helashop/storefront-go/pkg/config"
	"github.com/helashop/storefront-go/pkg/enums"
	pkgerrors "github.com/helashop/storefront-go/pkg/errors"
	"github.com/helashop/storefront-go/pkg/logger"
	"github.com/helashop/storefront-go/pkg/metrics"
	"github.com/helashop/storefront-go/pkg/redis"
	"github.com/helashop/storefront-go/pkg/types"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

const usage = `usage: helashop <command> [args]

  login <email>                  sign in (password read from stdin)
  logout                         sign out locally
  whoami                         show the signed-in profile
  register <email> <full name>   create an account
  products                       list the catalog
  banners                        list promotional banners
  cart show                      print the cart
  cart add <productId> [qty]     add an item
  cart update <productId> <qty>  change a line quantity
  cart remove <productId>        remove a line
  cart clear                     empty the cart
  order create <method>          checkout (cod|vnpay|banking)
  order list [status]            list my orders
  order show <orderId>           show one order
  order cancel <orderId> <why>   cancel an order
  pay <orderId>                  run the VNPay handoff
  verify <orderId>               re-check a payment
`

type app struct {
	cfg      *config.Config
	logger   *logger.Logger
	registry *prometheus.Registry
	store    session.Store
	auth     auth.Service
	cart     cart.Manager
	orders   orders.Service
	payments payments.Service
	catalog  catalog.Service
	users    users.Service
	closers  []func() error
}

func main() {
	logg := logger.New(logger.Options{ServiceName: "helashop"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "helashop",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	a, err := bootstrap(context.Background(), cfg, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap", err)
		os.Exit(1)
	}
	defer a.close()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if err := a.run(context.Background(), os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, pkgerrors.UserMessage(err))
		logg.Error(context.Background(), "command failed", err)
		os.Exit(1)
	}
}

func bootstrap(ctx context.Context, cfg *config.Config, logg *logger.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logg, registry: prometheus.NewRegistry()}

	store, err := a.openSessionStore(ctx)
	if err != nil {
		return nil, err
	}
	a.store = store

	client, err := httpclient.New(cfg.API, logg, metrics.NewRequestMetrics(a.registry))
	if err != nil {
		return nil, err
	}
	authed, err := transport.NewAuthed(client, store, logg)
	if err != nil {
		return nil, err
	}
	a.auth, err = auth.NewService(auth.ServiceParams{
		Client:  client,
		Authed:  authed,
		Session: store,
		Logger:  logg,
	})
	if err != nil {
		return nil, err
	}
	a.cart, err = cart.NewManager(cart.ManagerParams{
		Authed:   authed,
		Sessions: a.auth,
		Logger:   logg,
	})
	if err != nil {
		return nil, err
	}
	a.orders, err = orders.NewService(orders.ServiceParams{
		Authed: authed,
		Carts:  a.cart,
		Logger: logg,
	})
	if err != nil {
		return nil, err
	}
	a.payments, err = payments.NewService(payments.ServiceParams{
		Authed: authed,
		Config: cfg.Payment,
		Logger: logg,
	})
	if err != nil {
		return nil, err
	}
	a.catalog, err = catalog.NewService(client)
	if err != nil {
		return nil, err
	}
	a.users, err = users.NewService(users.ServiceParams{
		Authed:  authed,
		Session: store,
		Logger:  logg,
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (a *app) openSessionStore(ctx context.Context) (session.Store, error) {
	switch a.cfg.Session.Backend {
	case config.SessionBackendMemory:
		return session.NewMemoryStore(), nil
	case config.SessionBackendRedis:
		client, err := redis.New(ctx, a.cfg.Redis)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		return session.NewRedisStore(client)
	default:
		return session.NewSQLiteStore(a.cfg.Session.SQLitePath)
	}
}

func (a *app) close() {
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			a.logger.Error(context.Background(), "error closing resource", err)
		}
	}
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "login":
		return a.cmdLogin(ctx, args)
	case "logout":
		a.cart.Reset()
		if a.auth.Logout(ctx) {
			fmt.Println("signed out")
		} else {
			fmt.Println("signed out (some local state could not be cleared)")
		}
		return nil
	case "whoami":
		return a.cmdWhoami(ctx)
	case "register":
		return a.cmdRegister(ctx, args)
	case "products":
		return a.cmdProducts(ctx)
	case "banners":
		return a.cmdBanners(ctx)
	case "cart":
		return a.cmdCart(ctx, args)
	case "order":
		return a.cmdOrder(ctx, args)
	case "pay":
		return a.cmdPay(ctx, args)
	case "verify":
		return a.cmdVerify(ctx, args)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *app) cmdLogin(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: helashop login <email>")
	}
	fmt.Print("password: ")
	password, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}

	result, err := a.auth.Login(ctx, auth.Credentials{
		Email:    args[0],
		Password: strings.TrimRight(password, "\r\n"),
	})
	if err != nil {
		return err
	}
	if result.User != nil {
		fmt.Printf("signed in as %s\n", result.User.Email)
	} else {
		fmt.Println("signed in")
	}
	return nil
}

func (a *app) cmdWhoami(ctx context.Context) error {
	if !a.auth.IsLoggedIn(ctx) {
		fmt.Println("not signed in")
		return nil
	}
	profile, err := a.users.Profile(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%s <%s>\n", profile.FullName, profile.Email)
	if expiry, ok := a.auth.TokenExpiry(ctx); ok {
		if expiry.Expired {
			fmt.Println("session token has expired locally")
		} else {
			fmt.Printf("session valid until %s\n", expiry.ExpiresAt.Local())
		}
	}
	return nil
}

func (a *app) cmdRegister(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: helashop register <email> <full name>")
	}
	fmt.Print("password: ")
	password, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}
	if err := a.auth.Register(ctx, auth.Registration{
		Email:    args[0],
		Password: strings.TrimRight(password, "\r\n"),
		FullName: strings.Join(args[1:], " "),
	}); err != nil {
		return err
	}
	fmt.Println("account created, you can sign in now")
	return nil
}

func (a *app) cmdProducts(ctx context.Context) error {
	products, err := a.catalog.Products(ctx)
	if err != nil {
		return err
	}
	for _, p := range products {
		fmt.Printf("%-24s %10s  %s\n", p.ID, p.Price, p.Name)
	}
	return nil
}

func (a *app) cmdBanners(ctx context.Context) error {
	banners, err := a.catalog.Banners(ctx)
	if err != nil {
		return err
	}
	for _, b := range banners {
		fmt.Printf("%-24s %s\n", b.ID, b.ImageURL)
	}
	return nil
}

func (a *app) cmdCart(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: helashop cart <show|add|update|remove|clear>")
	}
	switch args[0] {
	case "show":
		fetched, err := a.cart.FetchCart(ctx)
		if err != nil {
			return err
		}
		printCart(fetched)
		return nil
	case "add":
		if len(args) < 2 {
			return fmt.Errorf("usage: helashop cart add <productId> [qty]")
		}
		qty := 1
		if len(args) > 2 {
			parsed, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("quantity must be an integer: %w", err)
			}
			qty = parsed
		}
		return a.reportMutation(a.cart.AddItem(ctx, args[1], qty))
	case "update":
		if len(args) < 3 {
			return fmt.Errorf("usage: helashop cart update <productId> <qty>")
		}
		qty, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("quantity must be an integer: %w", err)
		}
		return a.reportMutation(a.cart.UpdateItem(ctx, args[1], qty))
	case "remove":
		if len(args) < 2 {
			return fmt.Errorf("usage: helashop cart remove <productId>")
		}
		return a.reportMutation(a.cart.RemoveItem(ctx, args[1]))
	case "clear":
		return a.reportMutation(a.cart.EmptyCart(ctx))
	default:
		return fmt.Errorf("unknown cart command %q", args[0])
	}
}

func (a *app) reportMutation(ok bool, err error) error {
	if !ok {
		if err != nil {
			return err
		}
		return fmt.Errorf("cart update failed")
	}
	printCart(a.cart.Current())
	return nil
}

func printCart(c types.Cart) {
	if c.IsEmpty() {
		fmt.Println("cart is empty")
		return
	}
	for _, line := range c.Items {
		fmt.Printf("%-24s x%-3d %10s\n", line.Product.ID, line.Quantity, line.Price)
	}
	fmt.Printf("%d items, total %s\n", c.TotalItems, c.TotalAmount)
}

func (a *app) cmdOrder(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: helashop order <create|list|show|cancel>")
	}
	switch args[0] {
	case "create":
		return a.cmdOrderCreate(ctx, args[1:])
	case "list":
		params := orders.ListParams{}
		if len(args) > 1 {
			status, err := enums.ParseOrderStatus(args[1])
			if err != nil {
				return err
			}
			params.Status = status
		}
		page, err := a.orders.List(ctx, params)
		if err != nil {
			return err
		}
		for _, order := range page.Orders {
			fmt.Printf("%-24s %-12s %-10s %10s\n", order.ID, order.Status, order.PaymentStatus, order.Total)
		}
		fmt.Printf("page %d of %d (%d orders)\n", page.Page, page.TotalPages, page.Total)
		return nil
	case "show":
		if len(args) < 2 {
			return fmt.Errorf("usage: helashop order show <orderId>")
		}
		order, err := a.orders.Get(ctx, args[1])
		if err != nil {
			return err
		}
		printOrder(order)
		return nil
	case "cancel":
		if len(args) < 3 {
			return fmt.Errorf("usage: helashop order cancel <orderId> <reason>")
		}
		current, err := a.orders.Get(ctx, args[1])
		if err != nil {
			return err
		}
		if !current.Status.CanCancel() {
			return fmt.Errorf("order %s is %s and can no longer be cancelled", args[1], current.Status)
		}
		cancelled, err := a.orders.Cancel(ctx, args[1], strings.Join(args[2:], " "))
		if err != nil {
			return err
		}
		printOrder(cancelled)
		return nil
	default:
		return fmt.Errorf("unknown order command %q", args[0])
	}
}

func (a *app) cmdOrderCreate(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("order create", flag.ContinueOnError)
	name := flags.String("name", "", "recipient full name")
	phone := flags.String("phone", "", "recipient phone")
	street := flags.String("street", "", "street address")
	city := flags.String("city", "", "city")
	notes := flags.String("notes", "", "order notes")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() < 1 {
		return fmt.Errorf("usage: helashop order create [flags] <cod|vnpay|banking>")
	}

	// A fresh process starts at the empty sentinel; sync the cart from the
	// server before the local empty-cart guard runs.
	if _, err := a.cart.FetchCart(ctx); err != nil {
		return err
	}

	method := enums.PaymentMethod(flags.Arg(0))
	order, err := a.orders.Create(ctx, orders.CreateOrderInput{
		ShippingAddress: types.Address{
			FullName: *name,
			Phone:    *phone,
			Street:   *street,
			City:     *city,
		},
		PaymentMethod: method,
		Notes:         *notes,
	})
	if err != nil {
		return err
	}
	printOrder(order)

	if method.RequiresExternalPayment() {
		fmt.Println("order placed, starting payment handoff")
		return a.cmdPay(ctx, []string{order.ID})
	}
	return nil
}

func printOrder(order types.Order) {
	fmt.Printf("order %s (%s)\n", order.OrderNumber, order.ID)
	fmt.Printf("  status: %s, payment: %s via %s\n", order.Status, order.PaymentStatus, order.PaymentMethod)
	for _, item := range order.Items {
		fmt.Printf("  %-24s x%-3d %10s\n", item.Product.ID, item.Quantity, item.Price)
	}
	fmt.Printf("  total: %s\n", order.Total)
}

func (a *app) cmdPay(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: helashop pay <orderId>")
	}
	orderID := args[0]

	paymentURL, err := a.payments.CreatePaymentURL(ctx, orderID)
	if err != nil {
		return err
	}
	fmt.Printf("open this URL to pay:\n  %s\n", paymentURL)
	fmt.Printf("waiting for the gateway to return on %s\n", a.cfg.Payment.ReturnAddr)

	listener, err := payments.NewReturnListener(a.payments, a.cfg.Payment, a.logger, a.registry)
	if err != nil {
		return err
	}
	result, err := listener.Listen(ctx, orderID)
	if err != nil {
		return err
	}
	if result.Verified {
		fmt.Println("payment confirmed")
	} else {
		fmt.Println("payment not confirmed, check the order before retrying")
	}
	return nil
}

func (a *app) cmdVerify(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: helashop verify <orderId>")
	}
	verified, err := a.payments.Verify(ctx, args[0])
	if err != nil {
		return err
	}
	if verified {
		fmt.Println("payment confirmed")
	} else {
		fmt.Println("payment not confirmed")
	}
	return nil
}
