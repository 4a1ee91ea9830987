package phonenumber

import (
	"errors"
	"strconv"
	"strings"

	"github.com/ttacon/libphonenumber"
)

// PhoneNumber contains the metadata of a number
type PhoneNumber struct {
	RawNumber          string
	E164Format         string
	DialString         string
	NationalFormat     string
	CountryCallingCode string
	IsSipUser          bool
}

// NewPhoneNumber returns the PhoneNumber struct with the given Raw number
func NewPhoneNumber(number string) PhoneNumber {
	return PhoneNumber{
		RawNumber: number,
	}
}

// Parse fills the number's metadata for a given number
func (pn *PhoneNumber) Parse() error {
	if pn.RawNumber == "" {
		return errors.New("Raw number is empty")
	}
	// Check for SIP User
	if err := pn.populateIsSIPUser(); err == nil {
		return nil
	}
	return pn.parseWithLibPhonenumber()
}

func (pn *PhoneNumber) populateIsSIPUser() error {
	if !strings.HasPrefix(strings.ToLower(pn.RawNumber), "sip:") {
		return errors.New("Number is not a sip user")
	}
	pn.IsSipUser = true
	pn.E164Format = pn.RawNumber[4:]
	pn.DialString = pn.RawNumber[4:]
	return nil
}

func (pn *PhoneNumber) parseWithLibPhonenumber() error {
	raw := pn.RawNumber
	if !strings.HasPrefix(raw, "+") {
		raw = "+" + raw
	}
	number, err := libphonenumber.Parse(raw, "")
	if err != nil {
		return err
	}
	pn.NationalFormat = strconv.Itoa(int(number.GetNationalNumber()))
	pn.CountryCallingCode = strconv.Itoa(int(number.GetCountryCode()))
	pn.E164Format = libphonenumber.Format(number, libphonenumber.E164)
	pn.DialString = strings.TrimPrefix(pn.E164Format, "+")
	return nil
}
