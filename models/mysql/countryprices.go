package mysql

// CountryPrice contains the per-second rate and billing increment for a
// country calling code
type CountryPrice struct {
	CountryCode      string  `json:"country_code"`
	CountryName      string  `json:"country_name"`
	PricePerSecond   float64 `json:"price_per_second"`
	BillingIncrement string  `json:"billing_increment"`
}

// GetCountryPrice fetches the price row for a country calling code
func GetCountryPrice(countryCode string) (CountryPrice, error) {
	var price CountryPrice
	selectQuery := "SELECT country_code, country_name, price_per_second, billing_increment FROM country_prices WHERE country_code = ?"
	err := dbConn.QueryRow(selectQuery, countryCode).Scan(&price.CountryCode, &price.CountryName, &price.PricePerSecond, &price.BillingIncrement)
	if err != nil {
		return price, err
	}
	return price, nil
}

// GetSupportedCountryCodes fetches all country codes with a configured price
func GetSupportedCountryCodes() ([]string, error) {
	selQuery := "SELECT country_code FROM country_prices"
	selDB, err := dbConn.Query(selQuery)
	if err != nil {
		return nil, err
	}
	defer selDB.Close()
	var codes []string
	for selDB.Next() {
		var code string
		if err = selDB.Scan(&code); err != nil {
			return codes, err
		}
		codes = append(codes, code)
	}
	return codes, nil
}
