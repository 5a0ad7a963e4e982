package main

import (
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/trendlens/trendlens/internal/auth"
	"github.com/trendlens/trendlens/internal/model"
)

var (
	userEmail    string
	userPassword string
	userPlan     string
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage user accounts",
}

var usersCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user account",
	Long:  "Creates an account directly in the store, bypassing the public signup route. Use this to seed the admin account.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		plan := userPlan
		switch plan {
		case "free", "":
			plan = model.PlanFree
		case "pro":
			plan = model.PlanPro
		case "admin":
			plan = model.PlanAdmin
		case model.PlanFree, model.PlanPro, model.PlanAdmin:
		default:
			return eris.Errorf("unknown plan %q (free|pro|admin)", userPlan)
		}

		hash, err := auth.HashPassword(userPassword)
		if err != nil {
			return err
		}

		err = st.CreateUser(ctx, model.User{
			Email:        userEmail,
			PasswordHash: hash,
			Plan:         plan,
			Limits:       model.DefaultLimits(plan),
			CreatedAt:    time.Now().UTC(),
		})
		if err != nil {
			return eris.Wrapf(err, "create user %s", userEmail)
		}

		zap.L().Info("user created", zap.String("email", userEmail), zap.String("plan", plan))
		return nil
	},
}

func init() {
	usersCreateCmd.Flags().StringVar(&userEmail, "email", "", "account email (required)")
	usersCreateCmd.Flags().StringVar(&userPassword, "password", "", "account password (required)")
	usersCreateCmd.Flags().StringVar(&userPlan, "plan", "free", "subscription plan (free|pro|admin)")
	_ = usersCreateCmd.MarkFlagRequired("email")
	_ = usersCreateCmd.MarkFlagRequired("password")
	usersCmd.AddCommand(usersCreateCmd)
	rootCmd.AddCommand(usersCmd)
}
