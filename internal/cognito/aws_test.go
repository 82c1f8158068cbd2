package cognito_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/aws/smithy-go"

	"github.com/jaekwang-park/listo/internal/cognito"
)

// mockIdentityAPI embeds the interface so tests only implement what they call.
type mockIdentityAPI struct {
	cognito.IdentityAPI
	initiateAuthFn  func(in *cip.InitiateAuthInput) (*cip.InitiateAuthOutput, error)
	signUpFn        func(in *cip.SignUpInput) (*cip.SignUpOutput, error)
	globalSignOutFn func(in *cip.GlobalSignOutInput) (*cip.GlobalSignOutOutput, error)
}

func (m *mockIdentityAPI) InitiateAuth(_ context.Context, in *cip.InitiateAuthInput, _ ...func(*cip.Options)) (*cip.InitiateAuthOutput, error) {
	return m.initiateAuthFn(in)
}

func (m *mockIdentityAPI) SignUp(_ context.Context, in *cip.SignUpInput, _ ...func(*cip.Options)) (*cip.SignUpOutput, error) {
	return m.signUpFn(in)
}

func (m *mockIdentityAPI) GlobalSignOut(_ context.Context, in *cip.GlobalSignOutInput, _ ...func(*cip.Options)) (*cip.GlobalSignOutOutput, error) {
	return m.globalSignOutFn(in)
}

func TestAWSProvider_PasswordAuth(t *testing.T) {
	var got *cip.InitiateAuthInput
	mock := &mockIdentityAPI{
		initiateAuthFn: func(in *cip.InitiateAuthInput) (*cip.InitiateAuthOutput, error) {
			got = in
			return &cip.InitiateAuthOutput{
				AuthenticationResult: &types.AuthenticationResultType{
					IdToken:      aws.String("id-token"),
					AccessToken:  aws.String("access-token"),
					RefreshToken: aws.String("refresh-token"),
					ExpiresIn:    3600,
				},
			}, nil
		},
	}
	p := cognito.NewProvider(mock, "client-1", "secret")

	before := time.Now()
	tokens, err := p.PasswordAuth(context.Background(), "a@example.com", "Password1!")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.AuthFlow != types.AuthFlowTypeUserPasswordAuth {
		t.Errorf("AuthFlow=%s", got.AuthFlow)
	}
	if got.AuthParameters["USERNAME"] != "a@example.com" || got.AuthParameters["PASSWORD"] != "Password1!" {
		t.Errorf("AuthParameters=%v", got.AuthParameters)
	}
	if got.AuthParameters["SECRET_HASH"] != cognito.ComputeSecretHash("a@example.com", "client-1", "secret") {
		t.Error("expected SECRET_HASH for confidential client")
	}
	if tokens.AccessToken != "access-token" || tokens.RefreshToken != "refresh-token" {
		t.Errorf("tokens=%+v", tokens)
	}
	if tokens.ExpiresAt.Before(before.Add(59*time.Minute)) || tokens.ExpiresAt.After(time.Now().Add(time.Hour)) {
		t.Errorf("ExpiresAt=%v, want about one hour from now", tokens.ExpiresAt)
	}
}

func TestAWSProvider_Refresh_KeepsRefreshToken(t *testing.T) {
	mock := &mockIdentityAPI{
		initiateAuthFn: func(in *cip.InitiateAuthInput) (*cip.InitiateAuthOutput, error) {
			if in.AuthFlow != types.AuthFlowTypeRefreshTokenAuth {
				t.Errorf("AuthFlow=%s", in.AuthFlow)
			}
			if _, ok := in.AuthParameters["SECRET_HASH"]; ok {
				t.Error("public client must not send SECRET_HASH")
			}
			return &cip.InitiateAuthOutput{
				AuthenticationResult: &types.AuthenticationResultType{
					AccessToken: aws.String("new-access"),
					ExpiresIn:   3600,
				},
			}, nil
		},
	}
	p := cognito.NewProvider(mock, "client-1", "")

	tokens, err := p.Refresh(context.Background(), "user-sub", "refresh-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tokens.RefreshToken != "refresh-1" {
		t.Errorf("RefreshToken=%q, want carried over", tokens.RefreshToken)
	}
}

func TestAWSProvider_Challenge(t *testing.T) {
	mock := &mockIdentityAPI{
		initiateAuthFn: func(*cip.InitiateAuthInput) (*cip.InitiateAuthOutput, error) {
			return &cip.InitiateAuthOutput{ChallengeName: types.ChallengeNameTypeNewPasswordRequired}, nil
		},
	}
	p := cognito.NewProvider(mock, "client-1", "")

	_, err := p.PasswordAuth(context.Background(), "a@example.com", "pw")
	if !errors.Is(err, cognito.ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
}

func TestAWSProvider_MapsErrors(t *testing.T) {
	tests := []struct {
		code string
		want error
	}{
		{"UsernameExistsException", cognito.ErrUserAlreadyExists},
		{"InvalidPasswordException", cognito.ErrInvalidPassword},
		{"TooManyRequestsException", cognito.ErrTooManyRequests},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			mock := &mockIdentityAPI{
				signUpFn: func(*cip.SignUpInput) (*cip.SignUpOutput, error) {
					return nil, &smithy.GenericAPIError{Code: tt.code, Message: "rejected"}
				},
			}
			p := cognito.NewProvider(mock, "client-1", "")

			_, err := p.SignUp(context.Background(), "a@example.com", "pw")
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}

	t.Run("unknown code keeps the original error", func(t *testing.T) {
		apiErr := &smithy.GenericAPIError{Code: "InternalErrorException", Message: "boom"}
		mock := &mockIdentityAPI{
			globalSignOutFn: func(*cip.GlobalSignOutInput) (*cip.GlobalSignOutOutput, error) {
				return nil, apiErr
			},
		}
		p := cognito.NewProvider(mock, "client-1", "")

		err := p.GlobalSignOut(context.Background(), "access")
		var got smithy.APIError
		if !errors.As(err, &got) || got.ErrorCode() != "InternalErrorException" {
			t.Errorf("expected wrapped API error, got %v", err)
		}
	})
}

func TestAWSProvider_SignUp(t *testing.T) {
	mock := &mockIdentityAPI{
		signUpFn: func(in *cip.SignUpInput) (*cip.SignUpOutput, error) {
			if aws.ToString(in.Username) != "a@example.com" {
				t.Errorf("Username=%s", aws.ToString(in.Username))
			}
			return &cip.SignUpOutput{
				UserSub:       aws.String("sub-1"),
				UserConfirmed: false,
				CodeDeliveryDetails: &types.CodeDeliveryDetailsType{
					DeliveryMedium: types.DeliveryMediumTypeEmail,
				},
			}, nil
		},
	}
	p := cognito.NewProvider(mock, "client-1", "")

	res, err := p.SignUp(context.Background(), "a@example.com", "Password1!")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.UserSub != "sub-1" || res.Confirmed || res.Destination != "EMAIL" {
		t.Errorf("result=%+v", res)
	}
}

func TestTokens_ExpiresWithin(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	tokens := cognito.Tokens{ExpiresAt: now.Add(90 * time.Second)}

	if tokens.ExpiresWithin(now, time.Minute) {
		t.Error("token valid for 90s should not expire within 1m")
	}
	if !tokens.ExpiresWithin(now, 2*time.Minute) {
		t.Error("token valid for 90s should expire within 2m")
	}
}

func TestJWKSURL(t *testing.T) {
	got := cognito.JWKSURL("ap-northeast-1", "pool-1")
	want := "https://cognito-idp.ap-northeast-1.amazonaws.com/pool-1/.well-known/jwks.json"
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}
