package cognito

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/aws/smithy-go"
)

// IdentityAPI is the part of the AWS SDK client the provider calls.
type IdentityAPI interface {
	SignUp(ctx context.Context, in *cip.SignUpInput, optFns ...func(*cip.Options)) (*cip.SignUpOutput, error)
	ConfirmSignUp(ctx context.Context, in *cip.ConfirmSignUpInput, optFns ...func(*cip.Options)) (*cip.ConfirmSignUpOutput, error)
	ResendConfirmationCode(ctx context.Context, in *cip.ResendConfirmationCodeInput, optFns ...func(*cip.Options)) (*cip.ResendConfirmationCodeOutput, error)
	InitiateAuth(ctx context.Context, in *cip.InitiateAuthInput, optFns ...func(*cip.Options)) (*cip.InitiateAuthOutput, error)
	ForgotPassword(ctx context.Context, in *cip.ForgotPasswordInput, optFns ...func(*cip.Options)) (*cip.ForgotPasswordOutput, error)
	ConfirmForgotPassword(ctx context.Context, in *cip.ConfirmForgotPasswordInput, optFns ...func(*cip.Options)) (*cip.ConfirmForgotPasswordOutput, error)
	ChangePassword(ctx context.Context, in *cip.ChangePasswordInput, optFns ...func(*cip.Options)) (*cip.ChangePasswordOutput, error)
	GlobalSignOut(ctx context.Context, in *cip.GlobalSignOutInput, optFns ...func(*cip.Options)) (*cip.GlobalSignOutOutput, error)
}

// AWSProvider implements Provider against a Cognito user pool app client.
type AWSProvider struct {
	api          IdentityAPI
	clientID     string
	clientSecret string
	now          func() time.Time
}

// NewAWSProvider loads the default AWS configuration for region and returns a provider for the
// given app client. An empty clientSecret means the app client is public.
func NewAWSProvider(ctx context.Context, region, clientID, clientSecret string) (*AWSProvider, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewProvider(cip.NewFromConfig(cfg), clientID, clientSecret), nil
}

func NewProvider(api IdentityAPI, clientID, clientSecret string) *AWSProvider {
	return &AWSProvider{
		api:          api,
		clientID:     clientID,
		clientSecret: clientSecret,
		now:          time.Now,
	}
}

func (p *AWSProvider) secretHash(username string) *string {
	if p.clientSecret == "" {
		return nil
	}
	return aws.String(ComputeSecretHash(username, p.clientID, p.clientSecret))
}

func (p *AWSProvider) SignUp(ctx context.Context, email, password string) (SignUpResult, error) {
	out, err := p.api.SignUp(ctx, &cip.SignUpInput{
		ClientId:   aws.String(p.clientID),
		SecretHash: p.secretHash(email),
		Username:   aws.String(email),
		Password:   aws.String(password),
		UserAttributes: []types.AttributeType{
			{Name: aws.String("email"), Value: aws.String(email)},
		},
	})
	if err != nil {
		return SignUpResult{}, mapAWSError(err)
	}
	res := SignUpResult{
		UserSub:   aws.ToString(out.UserSub),
		Confirmed: out.UserConfirmed,
	}
	if out.CodeDeliveryDetails != nil {
		res.Destination = string(out.CodeDeliveryDetails.DeliveryMedium)
	}
	return res, nil
}

func (p *AWSProvider) ConfirmSignUp(ctx context.Context, email, code string) error {
	_, err := p.api.ConfirmSignUp(ctx, &cip.ConfirmSignUpInput{
		ClientId:         aws.String(p.clientID),
		SecretHash:       p.secretHash(email),
		Username:         aws.String(email),
		ConfirmationCode: aws.String(code),
	})
	return mapAWSError(err)
}

func (p *AWSProvider) ResendCode(ctx context.Context, email string) error {
	_, err := p.api.ResendConfirmationCode(ctx, &cip.ResendConfirmationCodeInput{
		ClientId:   aws.String(p.clientID),
		SecretHash: p.secretHash(email),
		Username:   aws.String(email),
	})
	return mapAWSError(err)
}

func (p *AWSProvider) PasswordAuth(ctx context.Context, email, password string) (Tokens, error) {
	params := map[string]string{
		"USERNAME": email,
		"PASSWORD": password,
	}
	return p.initiateAuth(ctx, types.AuthFlowTypeUserPasswordAuth, email, params)
}

// Refresh exchanges a refresh token for new ID and access tokens. Cognito does not rotate the
// refresh token, so the one passed in is carried over.
func (p *AWSProvider) Refresh(ctx context.Context, username, refreshToken string) (Tokens, error) {
	params := map[string]string{
		"REFRESH_TOKEN": refreshToken,
	}
	tokens, err := p.initiateAuth(ctx, types.AuthFlowTypeRefreshTokenAuth, username, params)
	if err != nil {
		return Tokens{}, err
	}
	if tokens.RefreshToken == "" {
		tokens.RefreshToken = refreshToken
	}
	return tokens, nil
}

func (p *AWSProvider) initiateAuth(ctx context.Context, flow types.AuthFlowType, username string, params map[string]string) (Tokens, error) {
	if h := p.secretHash(username); h != nil {
		params["SECRET_HASH"] = *h
	}
	out, err := p.api.InitiateAuth(ctx, &cip.InitiateAuthInput{
		ClientId:       aws.String(p.clientID),
		AuthFlow:       flow,
		AuthParameters: params,
	})
	if err != nil {
		return Tokens{}, mapAWSError(err)
	}
	if out.AuthenticationResult == nil {
		// Challenges such as NEW_PASSWORD_REQUIRED are not supported by this client.
		return Tokens{}, fmt.Errorf("%w: unsupported challenge %q", ErrNotAuthorized, out.ChallengeName)
	}
	r := out.AuthenticationResult
	return Tokens{
		IDToken:      aws.ToString(r.IdToken),
		AccessToken:  aws.ToString(r.AccessToken),
		RefreshToken: aws.ToString(r.RefreshToken),
		ExpiresAt:    p.now().Add(time.Duration(r.ExpiresIn) * time.Second),
	}, nil
}

func (p *AWSProvider) ForgotPassword(ctx context.Context, email string) error {
	_, err := p.api.ForgotPassword(ctx, &cip.ForgotPasswordInput{
		ClientId:   aws.String(p.clientID),
		SecretHash: p.secretHash(email),
		Username:   aws.String(email),
	})
	return mapAWSError(err)
}

func (p *AWSProvider) ConfirmForgotPassword(ctx context.Context, email, code, newPassword string) error {
	_, err := p.api.ConfirmForgotPassword(ctx, &cip.ConfirmForgotPasswordInput{
		ClientId:         aws.String(p.clientID),
		SecretHash:       p.secretHash(email),
		Username:         aws.String(email),
		ConfirmationCode: aws.String(code),
		Password:         aws.String(newPassword),
	})
	return mapAWSError(err)
}

func (p *AWSProvider) ChangePassword(ctx context.Context, accessToken, oldPassword, newPassword string) error {
	_, err := p.api.ChangePassword(ctx, &cip.ChangePasswordInput{
		AccessToken:      aws.String(accessToken),
		PreviousPassword: aws.String(oldPassword),
		ProposedPassword: aws.String(newPassword),
	})
	return mapAWSError(err)
}

func (p *AWSProvider) GlobalSignOut(ctx context.Context, accessToken string) error {
	_, err := p.api.GlobalSignOut(ctx, &cip.GlobalSignOutInput{
		AccessToken: aws.String(accessToken),
	})
	return mapAWSError(err)
}

// mapAWSError converts SDK API errors into the package sentinels. A nil error stays nil.
func mapAWSError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("cognito: %w", err)
	}
	if sentinel, ok := awsErrorCodes[apiErr.ErrorCode()]; ok {
		return fmt.Errorf("%s: %w", apiErr.ErrorMessage(), sentinel)
	}
	return fmt.Errorf("cognito %s: %w", apiErr.ErrorCode(), err)
}

var _ Provider = (*AWSProvider)(nil)
