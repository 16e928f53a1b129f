package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tkamau/tunza/core"
	"github.com/tkamau/tunza/core/account"
)

type authApi struct {
	deps ServerDeps
}

func registerAuthAPI(g *echo.Group, deps ServerDeps) {
	api := authApi{deps: deps}

	ag := g.Group("/auth")

	// TODO: rate limit `/forgot-password` & `/reset-password`
	ag.POST("/register-guardian", api.registerGuardian)
	ag.POST("/register-tutor", api.registerTutor)
	ag.POST("/login", api.login)
	ag.POST("/verify-otp", api.verifyOTP)
	ag.POST("/resend-otp", api.resendOTP)
	ag.POST("/send-email-otp", api.sendEmailOTP)
	ag.POST("/verify-email", api.verifyEmail)
	ag.POST("/forgot-password", api.forgotPassword)
	ag.POST("/reset-password", api.resetPassword)
}

// Handlers

func (api *authApi) register(ctx echo.Context, role string) error {
	var data account.NewRegistration
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRegistration")
	}
	if err := data.Validate(api.deps.Validate, api.deps.AccountSvc); err != nil {
		return err
	}

	acct, err := api.deps.AccountSvc.Register(ctx.Request().Context(), role, data)
	if err != nil {
		return errors.Wrap(err, "registering account")
	}

	token, err := GenerateToken(api.deps.Conf, GetAccountClaims(api.deps.Conf, acct))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusCreated, TokenResponse{Token: token, ID: acct.ID})
}

func (api *authApi) registerGuardian(ctx echo.Context) error {
	return api.register(ctx, account.RoleGuardian)
}

func (api *authApi) registerTutor(ctx echo.Context) error {
	return api.register(ctx, account.RoleTutor)
}

func (api *authApi) login(ctx echo.Context) error {
	var data account.Credentials
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Credentials")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	claims, err := authenticate(ctx.Request().Context(), api.deps.Conf, data, api.deps.AccountSvc)
	if err != nil {
		return errors.Wrap(err, "authenticating")
	}
	token, err := GenerateToken(api.deps.Conf, claims)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	return ctx.JSON(http.StatusOK, TokenResponse{Token: token, ID: claims.Subject})
}

func (api *authApi) verifyOTP(ctx echo.Context) error {
	var data account.VerifyOTP
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to VerifyOTP")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	acct, err := api.deps.AccountSvc.VerifyOTP(ctx.Request().Context(), data)
	if err != nil {
		switch errors.Cause(err) {
		case account.ErrOTPInvalid, account.ErrOTPExpired:
			return core.NewValidationError(err, core.FieldError{Field: "otp", Error: errors.Cause(err).Error()})
		case account.ErrNotFound:
			return errAuthenticationFailed
		}
		return errors.Wrap(err, "verifying OTP")
	}

	// phone verification completes signup: a fresh token reflects it
	token, err := GenerateToken(api.deps.Conf, GetAccountClaims(api.deps.Conf, acct))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, TokenResponse{Token: token, ID: acct.ID})
}

func (api *authApi) resendOTP(ctx echo.Context) error {
	var data PhoneRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PhoneRequest")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	if err := api.deps.AccountSvc.ResendOTP(ctx.Request().Context(), data.Phone); err != nil {
		if errors.Cause(err) != account.ErrNotFound {
			// do not return errors to attackers
			ctx.Logger().Errorf("%+v", errors.Wrap(err, "resending OTP"))
		}
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "If the phone number is registered, a new code is on its way."})
}

func (api *authApi) sendEmailOTP(ctx echo.Context) error {
	var data account.EmailOTPRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EmailOTPRequest")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		// the onboarding flow calls this before login; resolve by email
		acct, aErr := api.deps.AccountSvc.GetByEmail(ctx.Request().Context(), data.Email)
		if aErr != nil {
			return ctx.JSON(http.StatusOK, SuccessResponse{Success: "If the email is registered, a code is on its way."})
		}
		claims.Subject = acct.ID
	}

	if err = api.deps.AccountSvc.SendEmailOTP(ctx.Request().Context(), claims.Subject, data.Email); err != nil {
		return errors.Wrap(err, "sending email OTP")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "If the email is registered, a code is on its way."})
}

func (api *authApi) verifyEmail(ctx echo.Context) error {
	var data account.VerifyEmailOTP
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to VerifyEmailOTP")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	if _, err := api.deps.AccountSvc.VerifyEmailOTP(ctx.Request().Context(), data); err != nil {
		switch errors.Cause(err) {
		case account.ErrOTPInvalid, account.ErrOTPExpired:
			return core.NewValidationError(err, core.FieldError{Field: "otp", Error: errors.Cause(err).Error()})
		case account.ErrNotFound:
			return errAuthenticationFailed
		}
		return errors.Wrap(err, "verifying email")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Email verified."})
}

func (api *authApi) forgotPassword(ctx echo.Context) error {
	var data account.EmailOTPRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EmailOTPRequest")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	if err := api.deps.AccountSvc.RequestPasswordReset(data.Email); !(err == nil || errors.Cause(err) == account.ErrNotFound) {
		// do not return errors to attackers
		ctx.Logger().Errorf("%+v", errors.Wrap(err, "requesting password reset"))
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{
		Success: "If the email address supplied is associated with an active account on this system, " +
			"an email will arrive in your inbox shortly with instructions to reset your password.",
	})
}

func (api *authApi) resetPassword(ctx echo.Context) error {
	var data account.ResetAccountPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetAccountPassword")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	if err := api.deps.AccountSvc.ResetPassword(data); err != nil {
		return errors.Wrap(err, "resetting password")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Password has been reset with the new password."})
}
