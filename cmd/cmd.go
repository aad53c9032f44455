// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: text, markdown or json",
		Value:   "text",
	}
}

func emailFlag(required bool) cli.Flag {
	return &cli.StringFlag{
		Name:     "email",
		Aliases:  []string{"e"},
		Usage:    "Account email address",
		Required: required,
	}
}

func passwordFlag(usage string, required bool) cli.Flag {
	return &cli.StringFlag{
		Name:     "password",
		Aliases:  []string{"p"},
		Usage:    usage,
		Sources:  cli.EnvVars("OTTX_PASSWORD"),
		Required: required,
	}
}

// setupCommand creates the config file and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create config.toml, initialize the database and run migrations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.BoolFlag{
				Name:  "rollback",
				Usage: "Roll back the most recent database migration instead of migrating",
			},
		},
		Action: r.Setup,
	}
}

// accountCommand handles authentication and profile operations.
func accountCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "account",
		Aliases: []string{"acct"},
		Usage:   "Sign in, sign out and manage the account profile",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in with email and password, or through the identity provider",
				Flags: []cli.Flag{
					emailFlag(false),
					passwordFlag("Account password", false),
					&cli.BoolFlag{
						Name:  "idp",
						Usage: "Sign in with the configured OpenID Connect provider",
					},
				},
				Action: r.AccountLogin,
			},
			{
				Name:  "register",
				Usage: "Create an account and upload local favorites and watch history",
				Flags: []cli.Flag{
					emailFlag(true),
					passwordFlag("Password for the new account", true),
				},
				Action: r.AccountRegister,
			},
			{
				Name:   "logout",
				Usage:  "Sign out and forget the stored session",
				Action: r.AccountLogout,
			},
			{
				Name:   "status",
				Usage:  "Show the signed-in account, subscription and consents",
				Flags:  []cli.Flag{formatFlag()},
				Action: r.AccountStatus,
			},
			{
				Name:   "refresh",
				Usage:  "Renew the session token now",
				Action: r.AccountRefresh,
			},
			{
				Name:  "update",
				Usage: "Update profile fields",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "first-name", Usage: "First name"},
					&cli.StringFlag{Name: "last-name", Usage: "Last name"},
					emailFlag(false),
					&cli.StringFlag{
						Name:  "confirmation-password",
						Usage: "Current password, required when changing the email address",
					},
				},
				Action: r.AccountUpdate,
			},
			{
				Name:  "events",
				Usage: "Show recent session events (logins, refreshes, logouts)",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of events to show",
						Value: 20,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.AccountEvents,
			},
		},
	}
}

// subscriptionCommand handles subscription operations.
func subscriptionCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "subscription",
		Aliases: []string{"sub"},
		Usage:   "Show and manage the current subscription",
		Commands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the current subscription and payment method",
				Flags:  []cli.Flag{formatFlag()},
				Action: r.SubscriptionShow,
			},
			{
				Name:   "cancel",
				Usage:  "Cancel renewal of the current subscription",
				Action: r.SubscriptionCancel,
			},
			{
				Name:   "resume",
				Usage:  "Resume a cancelled subscription",
				Action: r.SubscriptionResume,
			},
			{
				Name:  "reload",
				Usage: "Reload subscription, transactions and payment method",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "delay",
						Usage: "Wait before reloading (purchases take a moment to appear)",
					},
				},
				Action: r.SubscriptionReload,
			},
			{
				Name:  "transactions",
				Usage: "List transactions or export them as CSV",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write CSV to this file",
					},
				},
				Action: r.SubscriptionTransactions,
			},
		},
	}
}

// consentsCommand handles consent operations.
func consentsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "consents",
		Usage: "Show and answer consents",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List publisher consents and the customer's answers",
				Action: r.ConsentsList,
			},
			{
				Name:  "set",
				Usage: "Accept or decline consents by name",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "accept", Usage: "Consent names to accept"},
					&cli.StringSliceFlag{Name: "decline", Usage: "Consent names to decline"},
				},
				Action: r.ConsentsSet,
			},
		},
	}
}

// passwordCommand handles password reset.
func passwordCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "password",
		Usage: "Reset or change the account password",
		Commands: []*cli.Command{
			{
				Name:  "reset",
				Usage: "Send a password reset mail",
				Flags: []cli.Flag{
					emailFlag(true),
					&cli.StringFlag{Name: "reset-url", Usage: "Link target for the reset mail"},
				},
				Action: r.PasswordReset,
			},
			{
				Name:  "change",
				Usage: "Set a new password with the token from the reset mail",
				Flags: []cli.Flag{
					emailFlag(true),
					passwordFlag("New password", true),
					&cli.StringFlag{Name: "token", Usage: "Reset token from the mail", Required: true},
				},
				Action: r.PasswordChange,
			},
		},
	}
}

// captureCommand handles registration capture questions.
func captureCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "capture",
		Usage: "Show or answer registration capture questions",
		Commands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "Show which capture questions must be answered",
				Action: r.CaptureStatus,
			},
			{
				Name:  "answer",
				Usage: "Answer capture questions",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "first-name"},
					&cli.StringFlag{Name: "last-name"},
					&cli.StringFlag{Name: "birth-date", Usage: "YYYY-MM-DD"},
					&cli.StringFlag{Name: "company-name"},
					&cli.StringFlag{Name: "phone-number"},
					&cli.StringFlag{Name: "address"},
					&cli.StringFlag{Name: "city"},
					&cli.StringFlag{Name: "post-code"},
				},
				Action: r.CaptureAnswer,
			},
		},
	}
}

// shelvesCommand handles favorites and watch history.
func shelvesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "shelves",
		Usage: "Manage favorites and watch history",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List favorites and watch history",
				Flags:  []cli.Flag{&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"}},
				Action: r.ShelvesList,
			},
			{
				Name:      "favorite",
				Usage:     "Add a media item to favorites",
				Arguments: []cli.Argument{&cli.StringArg{Name: "media-id"}},
				Flags:     []cli.Flag{&cli.StringFlag{Name: "title"}},
				Action:    r.ShelvesFavorite,
			},
			{
				Name:      "unfavorite",
				Usage:     "Remove a media item from favorites",
				Arguments: []cli.Argument{&cli.StringArg{Name: "media-id"}},
				Action:    r.ShelvesUnfavorite,
			},
			{
				Name:      "watch",
				Usage:     "Record watch progress (0 to 1) for a media item",
				Arguments: []cli.Argument{&cli.StringArg{Name: "media-id"}},
				Flags: []cli.Flag{
					&cli.FloatFlag{Name: "progress", Value: 0},
					&cli.StringFlag{Name: "title"},
				},
				Action: r.ShelvesWatch,
			},
			{
				Name:   "sync",
				Usage:  "Upload favorites and watch history to the account",
				Action: r.ShelvesSync,
			},
		},
	}
}

// entitlementCommand checks offer access.
func entitlementCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "entitlement",
		Usage:     "Check whether the account may play content behind an offer",
		Arguments: []cli.Argument{&cli.StringArg{Name: "offer-id"}},
		Action:    r.EntitlementCheck,
	}
}

// tuiCommand launches the account dashboard.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "tui",
		Usage:  "Interactive account dashboard",
		Action: r.TUI,
	}
}
