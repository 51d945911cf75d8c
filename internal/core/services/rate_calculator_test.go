package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/SscSPs/fx_quote_engine/internal/apperrors"
	"github.com/SscSPs/fx_quote_engine/internal/core/domain"
	portssvc "github.com/SscSPs/fx_quote_engine/internal/core/ports/services"
	"github.com/SscSPs/fx_quote_engine/internal/core/services"
	"github.com/SscSPs/fx_quote_engine/internal/dto"
)

type RateCalculatorTestSuite struct {
	suite.Suite
	mockRates   *MockRateRepository
	mockMarkups *MockMarkupRepository
	calculator  portssvc.RateCalculatorSvc
	ctx         context.Context
	pair        domain.CurrencyPair
}

func (s *RateCalculatorTestSuite) SetupTest() {
	s.mockRates = new(MockRateRepository)
	s.mockMarkups = new(MockMarkupRepository)
	clock := func() time.Time { return t0 }
	resolver := services.NewMarkupResolver(s.mockMarkups, services.WithClock(clock))
	s.calculator = services.NewRateCalculator(s.mockRates, resolver,
		[]string{domain.ChannelPHP, domain.ChannelBOCHK}, services.WithClock(clock), services.WithStoreTimeout(50*time.Millisecond))
	s.ctx = context.Background()
	s.pair = "USD/HKD"
}

func (s *RateCalculatorTestSuite) TearDownTest() {
	s.mockRates.AssertExpectations(s.T())
	s.mockMarkups.AssertExpectations(s.T())
}

func TestRateCalculatorService(t *testing.T) {
	suite.Run(t, new(RateCalculatorTestSuite))
}

func (s *RateCalculatorTestSuite) request(sell, buy, amount string) dto.ComputeQuoteRequest {
	return dto.ComputeQuoteRequest{
		MerchantID:   "m-1",
		CurrencyPair: "USD/HKD",
		SellCurrency: sell,
		SellAmount:   d(amount),
		BuyCurrency:  buy,
	}
}

func (s *RateCalculatorTestSuite) TestComputeQuote_PlatformPips() {
	rate := usdHkdRate(domain.ChannelPHP, t0.Add(-time.Minute))
	s.mockRates.On("FindLatestRate", mock.Anything, domain.ChannelPHP, s.pair).Return(&rate, nil).Once()
	s.mockMarkups.On("ListPlatformMarkupRules", mock.Anything, domain.ChannelPHP, s.pair).
		Return([]domain.PlatformMarkupRule{platformPips(domain.ChannelPHP, "20")}, nil).Once()
	s.mockMarkups.On("ListMerchantRateRules", mock.Anything, "m-1", s.pair).Return([]domain.MerchantRateRule{}, nil).Once()

	result, err := s.calculator.ComputeQuote(s.ctx, s.request("USD", "HKD", "1000"))

	s.Require().NoError(err)
	s.Equal(domain.ChannelPHP, result.ChannelID)
	s.Equal(domain.SellBase, result.Direction)
	s.Equal("7.807", result.Rate.String())
	s.Equal("7807.00", result.BuyAmount.StringFixed(2))
	s.Equal("0.002", result.PlatformMarkup.String())
	s.Nil(result.MerchantMarkup)
	s.Equal(domain.PricingPlatform, result.PricingType)
}

func (s *RateCalculatorTestSuite) TestComputeQuote_SellQuoteUsesBid() {
	rate := usdHkdRate(domain.ChannelPHP, t0.Add(-time.Minute))
	s.mockRates.On("FindLatestRate", mock.Anything, domain.ChannelPHP, s.pair).Return(&rate, nil).Once()
	s.mockMarkups.On("ListPlatformMarkupRules", mock.Anything, domain.ChannelPHP, s.pair).
		Return([]domain.PlatformMarkupRule{platformPips(domain.ChannelPHP, "20")}, nil).Once()
	s.mockMarkups.On("ListMerchantRateRules", mock.Anything, "m-1", s.pair).Return(nil, nil).Once()

	result, err := s.calculator.ComputeQuote(s.ctx, s.request("HKD", "USD", "7793"))

	s.Require().NoError(err)
	s.Equal(domain.SellQuote, result.Direction)
	s.Equal("7.793", result.Rate.String())
	s.Equal("1000.00", result.BuyAmount.StringFixed(2))
}

func (s *RateCalculatorTestSuite) TestComputeQuote_MerchantCustomRate() {
	rate := usdHkdRate(domain.ChannelPHP, t0.Add(-time.Minute))
	custom := d("7.79")
	s.mockRates.On("FindLatestRate", mock.Anything, domain.ChannelPHP, s.pair).Return(&rate, nil).Once()
	s.mockMarkups.On("ListPlatformMarkupRules", mock.Anything, domain.ChannelPHP, s.pair).
		Return([]domain.PlatformMarkupRule{platformPips(domain.ChannelPHP, "20")}, nil).Once()
	s.mockMarkups.On("ListMerchantRateRules", mock.Anything, "m-1", s.pair).Return([]domain.MerchantRateRule{
		{ID: "pending", PricingType: domain.PricingCustom, CustomRate: &custom, ApprovalStatus: domain.ApprovalPending, EffectiveFrom: t0.Add(-time.Hour), IsActive: true},
		{ID: "approved", PricingType: domain.PricingCustom, CustomRate: &custom, ApprovalStatus: domain.ApprovalApproved, EffectiveFrom: t0.Add(-time.Hour), IsActive: true},
	}, nil).Once()

	result, err := s.calculator.ComputeQuote(s.ctx, s.request("USD", "HKD", "1000"))

	s.Require().NoError(err)
	s.Equal(domain.PricingCustom, result.PricingType)
	s.Equal("7.79", result.Rate.String())
	s.Equal("7790.00", result.BuyAmount.StringFixed(2))
}

func (s *RateCalculatorTestSuite) TestComputeQuote_StaleRateFallsThroughToNextChannel() {
	stale := usdHkdRate(domain.ChannelPHP, t0.Add(-10*time.Minute))
	fresh := usdHkdRate(domain.ChannelBOCHK, t0.Add(-time.Second))
	s.mockRates.On("FindLatestRate", mock.Anything, domain.ChannelPHP, s.pair).Return(&stale, nil).Once()
	s.mockRates.On("FindLatestRate", mock.Anything, domain.ChannelBOCHK, s.pair).Return(&fresh, nil).Once()
	s.mockMarkups.On("ListPlatformMarkupRules", mock.Anything, domain.ChannelBOCHK, s.pair).Return(nil, nil).Once()
	s.mockMarkups.On("ListMerchantRateRules", mock.Anything, "m-1", s.pair).Return(nil, nil).Once()

	result, err := s.calculator.ComputeQuote(s.ctx, s.request("USD", "HKD", "1000"))

	s.Require().NoError(err)
	s.Equal(domain.ChannelBOCHK, result.ChannelID)
	s.Equal("7.805", result.Rate.String())
}

func (s *RateCalculatorTestSuite) TestComputeQuote_NoCurrentRate() {
	stale := usdHkdRate(domain.ChannelPHP, t0.Add(-10*time.Minute))
	s.mockRates.On("FindLatestRate", mock.Anything, domain.ChannelPHP, s.pair).Return(&stale, nil).Once()
	s.mockRates.On("FindLatestRate", mock.Anything, domain.ChannelBOCHK, s.pair).
		Return(nil, apperrors.NewNotFoundError("no rate")).Once()

	result, err := s.calculator.ComputeQuote(s.ctx, s.request("USD", "HKD", "1000"))

	s.Nil(result)
	s.ErrorIs(err, apperrors.ErrRateUnavailable)
}

func (s *RateCalculatorTestSuite) TestComputeQuote_ExplicitChannelSkipsRouting() {
	s.mockRates.On("FindLatestRate", mock.Anything, domain.ChannelLEPTAGE, s.pair).
		Return(nil, apperrors.NewNotFoundError("no rate")).Once()

	req := s.request("USD", "HKD", "1000")
	req.ChannelID = "leptage"
	_, err := s.calculator.ComputeQuote(s.ctx, req)

	s.ErrorIs(err, apperrors.ErrRateUnavailable)
	s.mockRates.AssertNotCalled(s.T(), "FindLatestRate", mock.Anything, domain.ChannelPHP, s.pair)
}

func (s *RateCalculatorTestSuite) TestComputeQuote_StoreTimeoutIsNotRateUnavailable() {
	s.mockRates.On("FindLatestRate", mock.Anything, domain.ChannelPHP, s.pair).
		Return(nil, context.DeadlineExceeded).Once()

	_, err := s.calculator.ComputeQuote(s.ctx, s.request("USD", "HKD", "1000"))

	s.ErrorIs(err, apperrors.ErrTimeout)
	s.False(errors.Is(err, apperrors.ErrRateUnavailable))
	s.False(errors.Is(err, apperrors.ErrNotFound))
	s.True(apperrors.IsRetryable(err))
}

func (s *RateCalculatorTestSuite) TestComputeQuote_NonPositiveRateSkipsChannel() {
	rate := usdHkdRate(domain.ChannelPHP, t0.Add(-time.Minute))
	s.mockRates.On("FindLatestRate", mock.Anything, domain.ChannelPHP, s.pair).Return(&rate, nil).Once()
	s.mockRates.On("FindLatestRate", mock.Anything, domain.ChannelBOCHK, s.pair).
		Return(nil, apperrors.NewNotFoundError("no rate")).Once()
	s.mockMarkups.On("ListPlatformMarkupRules", mock.Anything, domain.ChannelPHP, s.pair).
		Return([]domain.PlatformMarkupRule{platformPips(domain.ChannelPHP, "100000")}, nil).Once()
	s.mockMarkups.On("ListMerchantRateRules", mock.Anything, "m-1", s.pair).Return(nil, nil).Once()

	_, err := s.calculator.ComputeQuote(s.ctx, s.request("HKD", "USD", "1000"))

	s.ErrorIs(err, apperrors.ErrRateUnavailable)
}

func (s *RateCalculatorTestSuite) TestComputeQuote_Validation() {
	tests := []struct {
		name string
		req  dto.ComputeQuoteRequest
	}{
		{"bad pair", dto.ComputeQuoteRequest{CurrencyPair: "USDHKD", SellCurrency: "USD", BuyCurrency: "HKD", SellAmount: d("1")}},
		{"currencies off pair", dto.ComputeQuoteRequest{CurrencyPair: "USD/HKD", SellCurrency: "EUR", BuyCurrency: "HKD", SellAmount: d("1")}},
		{"zero amount", dto.ComputeQuoteRequest{CurrencyPair: "USD/HKD", SellCurrency: "USD", BuyCurrency: "HKD", SellAmount: d("0")}},
		{"negative amount", dto.ComputeQuoteRequest{CurrencyPair: "USD/HKD", SellCurrency: "USD", BuyCurrency: "HKD", SellAmount: d("-5")}},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.calculator.ComputeQuote(s.ctx, tt.req)
			s.ErrorIs(err, apperrors.ErrValidation)
		})
	}
}

func (s *RateCalculatorTestSuite) TestResolveMarkup_LatestWindowWins() {
	older := platformPips(domain.ChannelPHP, "10")
	older.ID = "older"
	newer := platformPips(domain.ChannelPHP, "30")
	newer.ID = "newer"
	newer.EffectiveFrom = t0.Add(-time.Minute)
	expired := platformPips(domain.ChannelPHP, "50")
	expiredTo := t0
	expired.EffectiveTo = &expiredTo

	s.mockMarkups.On("ListPlatformMarkupRules", mock.Anything, domain.ChannelPHP, s.pair).
		Return([]domain.PlatformMarkupRule{older, newer, expired}, nil).Once()

	resolver := services.NewMarkupResolver(s.mockMarkups, services.WithClock(func() time.Time { return t0 }))
	markup, err := resolver.ResolveMarkup(s.ctx, domain.ChannelPHP, s.pair, "")

	s.Require().NoError(err)
	s.Require().NotNil(markup.Platform)
	s.Equal("newer", markup.Platform.ID)
	s.Nil(markup.Merchant)
}

func (s *RateCalculatorTestSuite) TestComputeQuote_ChannelLimitsSteerRouting() {
	clock := func() time.Time { return t0 }
	resolver := services.NewMarkupResolver(s.mockMarkups, services.WithClock(clock))
	calc := services.NewRoutingRateCalculator(s.mockRates, resolver,
		[]string{domain.ChannelPHP, domain.ChannelBOCHK},
		map[string]domain.ChannelLimits{domain.ChannelPHP: {MaxAmount: d("500")}},
		services.WithClock(clock))

	fresh := usdHkdRate(domain.ChannelBOCHK, t0.Add(-time.Second))
	s.mockRates.On("FindLatestRate", mock.Anything, domain.ChannelBOCHK, s.pair).Return(&fresh, nil).Once()
	s.mockMarkups.On("ListPlatformMarkupRules", mock.Anything, domain.ChannelBOCHK, s.pair).Return(nil, nil).Once()
	s.mockMarkups.On("ListMerchantRateRules", mock.Anything, "m-1", s.pair).Return(nil, nil).Once()

	// PHP is never asked for a rate: the amount is above its maximum.
	result, err := calc.ComputeQuote(s.ctx, s.request("USD", "HKD", "1000"))

	s.Require().NoError(err)
	s.Equal(domain.ChannelBOCHK, result.ChannelID)
	s.mockRates.AssertNotCalled(s.T(), "FindLatestRate", mock.Anything, domain.ChannelPHP, s.pair)
}

func (s *RateCalculatorTestSuite) TestComputeQuote_DisabledChannelIsUnavailable() {
	calc := services.NewRoutingRateCalculator(s.mockRates, services.NewMarkupResolver(s.mockMarkups),
		[]string{domain.ChannelPHP},
		map[string]domain.ChannelLimits{domain.ChannelPHP: {Disabled: true}})

	_, err := calc.ComputeQuote(s.ctx, s.request("USD", "HKD", "1000"))

	s.ErrorIs(err, apperrors.ErrRateUnavailable)
}
