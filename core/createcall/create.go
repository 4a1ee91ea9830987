package createcall

import (
	"context"
	"errors"
	"net/http"

	"bitbucket.org/yellowmessenger/callcontrol-ari/call"
	"bitbucket.org/yellowmessenger/callcontrol-ari/callback"
	"bitbucket.org/yellowmessenger/callcontrol-ari/configmanager"
	"bitbucket.org/yellowmessenger/callcontrol-ari/contracts"
	"bitbucket.org/yellowmessenger/callcontrol-ari/eventhandler"
	"bitbucket.org/yellowmessenger/callcontrol-ari/models/mysql"
	"bitbucket.org/yellowmessenger/callcontrol-ari/newrelic"
	"bitbucket.org/yellowmessenger/callcontrol-ari/phonenumber"
	"bitbucket.org/yellowmessenger/callcontrol-ari/utils/asterisk"
	"bitbucket.org/yellowmessenger/callcontrol-ari/ymlogger"
	guuid "github.com/google/uuid"
)

var (
	// ErrUnauthorized is returned when the API key has no matching account
	ErrUnauthorized = errors.New("Invalid API key")
	// ErrAccountInactive is returned for a deactivated account
	ErrAccountInactive = errors.New("Account is not active")
	// ErrInsufficientBalance is returned when the balance is below the
	// configured minimum
	ErrInsufficientBalance = errors.New("Insufficient account balance")
	// ErrUnsupportedDestination is returned when no price is configured for
	// the destination country
	ErrUnsupportedDestination = errors.New("Destination country is not supported")
)

// Create originates an outbound call for the request and registers its
// record. It returns the response along with the HTTP status the handler
// should reply with.
func Create(
	ctx context.Context,
	req contracts.CreateCallRequest,
) (
	*contracts.CreateCallResponse,
	int,
	error,
) {
	toNumber := phonenumber.NewPhoneNumber(*req.To)
	if err := toNumber.Parse(); err != nil {
		ymlogger.LogErrorf("CreateCall", "Failed to parse To number [%s]. Error: [%#v]", *req.To, err)
		return nil, http.StatusBadRequest, err
	}
	fromNumber := phonenumber.NewPhoneNumber(*req.From)
	if err := fromNumber.Parse(); err != nil {
		ymlogger.LogErrorf("CreateCall", "Failed to parse From number [%s]. Error: [%#v]", *req.From, err)
		fromNumber.E164Format = *req.From
		fromNumber.DialString = *req.From
	}

	user, err := mysql.GetUserByAPIKey(*req.APIKey)
	if err != nil {
		ymlogger.LogErrorf("CreateCall", "Failed to fetch the user for the API key. Error: [%#v]", err)
		return nil, http.StatusUnauthorized, ErrUnauthorized
	}
	if !user.Active {
		return nil, http.StatusForbidden, ErrAccountInactive
	}

	price, err := mysql.GetCountryPrice(toNumber.CountryCallingCode)
	if err != nil {
		supported, _ := mysql.GetSupportedCountryCodes()
		ymlogger.LogErrorf("CreateCall", "No price configured for country code [%s]. Supported: [%v]. Error: [%#v]", toNumber.CountryCallingCode, supported, err)
		return nil, http.StatusForbidden, ErrUnsupportedDestination
	}
	if user.Balance < configmanager.ConfStore.MinimumBalance {
		ymlogger.LogErrorf("CreateCall", "Balance [%f] is below the minimum [%f] for UserID [%d]", user.Balance, configmanager.ConfStore.MinimumBalance, user.ID)
		return nil, http.StatusPaymentRequired, ErrInsufficientBalance
	}

	// Oldest-active eviction keeps the account inside its concurrency limit
	if user.ConcurrentCalls > 0 && call.ActiveCallsForUser(user.ID) >= user.ConcurrentCalls {
		if oldestCallID, ok := call.OldestActiveCallForUser(user.ID); ok {
			ymlogger.LogInfof(oldestCallID, "Evicting the oldest active call for UserID [%d]", user.ID)
			eventhandler.TerminateCall(ctx, oldestCallID, "concurrency_limit")
		}
	}

	callID := guuid.New().String()
	ymlogger.LogInfof(callID, "Create Call Request: From: [%s] To: [%s] AMD: [%t]", fromNumber.E164Format, toNumber.E164Format, req.WantsAMD())

	call.Create(callID, &call.Record{
		CallbackURL:      *req.CallbackURL,
		APIKey:           *req.APIKey,
		UserID:           user.ID,
		CountryCode:      toNumber.CountryCallingCode,
		ToNumber:         toNumber.E164Format,
		FromNumber:       fromNumber.E164Format,
		PricePerSecond:   price.PricePerSecond,
		BillingIncrement: price.BillingIncrement,
		AMD:              req.WantsAMD(),
	})

	channelRes, err := asterisk.Originate(ctx, callID, toNumber, fromNumber)
	if err != nil {
		ymlogger.LogErrorf(callID, "Failed to originate the call. Error: [%#v]", err)
		call.Delete(callID)
		return nil, http.StatusInternalServerError, err
	}
	call.Mutate(callID, func(record *call.Record) {
		record.ChannelID = channelRes.ID
	})

	if err := mysql.InsertCallState(callID, user.ID, channelRes.ID, toNumber.E164Format, fromNumber.E164Format); err != nil {
		ymlogger.LogErrorf(callID, "Failed to persist the call state. Error: [%#v]", err)
	}
	if err := mysql.IncrementTotalCalls(user.ID); err != nil {
		ymlogger.LogErrorf(callID, "Failed to count the call for UserID [%d]. Error: [%#v]", user.ID, err)
	}

	callback.Send(callID, *req.CallbackURL, call.StatusInitiated, map[string]interface{}{
		"to":   toNumber.E164Format,
		"from": fromNumber.E164Format,
	})
	newrelic.SendCustomEvent("create_call", map[string]interface{}{
		"country_code": toNumber.CountryCallingCode,
		"amd":          req.WantsAMD(),
	})

	return &contracts.CreateCallResponse{
		Success: true,
		CallID:  callID,
	}, http.StatusOK, nil
}
