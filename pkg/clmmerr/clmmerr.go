// Package clmmerr is the closed error taxonomy for the CLMM engine.
//
// Every entrypoint in pkg/engine returns one of these sentinels, possibly
// wrapped with fmt.Errorf("...: %w", ...) for call-site context. No package
// outside clmmerr introduces a bare errors.New for a condition that recurs
// across calls; ad hoc errors.New is reserved for truly local, non-taxonomy
// failures (e.g. malformed decode input).
package clmmerr

import "errors"

// PermissionError
var (
	ErrNotApproved             = errors.New("not approved")
	ErrInvalidUpdateConfigFlag = errors.New("invalid update config flag")
)

// TickDomainError
var (
	ErrInvalidTickIndex        = errors.New("invalid tick index")
	ErrTickInvalidOrder        = errors.New("tick lower must be less than tick upper")
	ErrTickLowerOverflow       = errors.New("tick lower out of range")
	ErrTickUpperOverflow       = errors.New("tick upper out of range")
	ErrTickAndSpacingMismatch  = errors.New("tick not aligned to spacing")
	ErrInvalidTickArray        = errors.New("invalid tick array")
	ErrInvalidTickArrayBoundary = errors.New("invalid tick array boundary")
)

// PriceDomainError
var (
	ErrSqrtPriceLimitOverflow = errors.New("sqrt price limit out of range")
	ErrSqrtPriceX64OutOfRange = errors.New("sqrt price out of range")
)

// LiquidityError
var (
	ErrLiquiditySubValue                 = errors.New("liquidity subtraction underflow")
	ErrLiquidityAddValue                 = errors.New("liquidity addition overflow")
	ErrInvalidLiquidity                  = errors.New("invalid liquidity")
	ErrForbidBothZeroForSupplyLiquidity  = errors.New("both amounts zero for supply liquidity")
	ErrLiquidityInsufficient             = errors.New("insufficient liquidity")
	ErrInsufficientLiquidityForDirection = errors.New("insufficient liquidity for swap direction")
)

// SwapError
var (
	ErrZeroAmountSpecified         = errors.New("amount specified is zero")
	ErrPriceSlippageCheck          = errors.New("price slippage check failed")
	ErrTooLittleOutputReceived     = errors.New("too little output received")
	ErrTooMuchInputPaid            = errors.New("too much input paid")
	ErrInvalidInputPoolVault       = errors.New("invalid input pool vault")
	ErrTooSmallInputOrOutputAmount = errors.New("input or output amount too small")
	ErrNotEnoughTickArrayAccount   = errors.New("not enough tick array account")
	ErrInvalidFirstTickArrayAccount = errors.New("invalid first tick array account")
)

// RewardError
var (
	ErrInvalidRewardIndex              = errors.New("invalid reward index")
	ErrFullRewardInfo                  = errors.New("reward info slots full")
	ErrRewardTokenAlreadyInUse         = errors.New("reward token already in use")
	ErrExceptRewardMint                = errors.New("reward mint not permitted for this slot")
	ErrInvalidRewardInitParam          = errors.New("invalid reward init param")
	ErrInvalidRewardDesiredAmount      = errors.New("invalid reward desired amount")
	ErrInvalidRewardInputAccountNumber = errors.New("invalid reward input account number")
	ErrInvalidRewardPeriod             = errors.New("invalid reward period")
	ErrNotApproveUpdateRewardEmissions = errors.New("not approved to update reward emissions")
	ErrUnInitializedRewardInfo         = errors.New("reward info not initialized")
	ErrInsufficientRewardBalance       = errors.New("insufficient unclaimed reward balance")
)

// InfrastructureError
var (
	ErrAccountLack                             = errors.New("required account missing")
	ErrClosePositionErr                         = errors.New("cannot close position")
	ErrNotSupportMint                           = errors.New("mint not supported")
	ErrMissingTickArrayBitmapExtensionAccount   = errors.New("missing tick array bitmap extension account")
	ErrInvalidInputMint                         = errors.New("token_mint_0 must be less than token_mint_1")
)

// NumericError
var (
	ErrMaxTokenOverflow           = errors.New("max token amount overflow")
	ErrCalculateOverflow          = errors.New("calculation overflow")
	ErrTransferFeeCalculateNotMatch = errors.New("transfer fee calculation mismatch")
)
