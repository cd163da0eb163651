package shipping

// regionRate is one administrative-region band of the fixed-rate fallback
// table. CEP bands follow the national prefix allocation: the first five
// digits of a CEP place it in a state range.
type regionRate struct {
	Name      string
	UF        string
	MinPrefix int // inclusive, first five CEP digits
	MaxPrefix int // inclusive
	BasePrice float64
	BaseDays  int
}

// regionRates covers 01000–99999. Prices are the PAC-equivalent base for a
// 500g parcel shipped from the São Paulo origin hub.
var regionRates = []regionRate{
	{Name: "São Paulo", UF: "SP", MinPrefix: 1000, MaxPrefix: 19999, BasePrice: 15.90, BaseDays: 5},
	{Name: "Rio de Janeiro", UF: "RJ", MinPrefix: 20000, MaxPrefix: 28999, BasePrice: 18.90, BaseDays: 6},
	{Name: "Espírito Santo", UF: "ES", MinPrefix: 29000, MaxPrefix: 29999, BasePrice: 19.90, BaseDays: 7},
	{Name: "Minas Gerais", UF: "MG", MinPrefix: 30000, MaxPrefix: 39999, BasePrice: 18.90, BaseDays: 6},
	{Name: "Bahia / Sergipe", UF: "BA", MinPrefix: 40000, MaxPrefix: 49999, BasePrice: 24.90, BaseDays: 9},
	{Name: "Nordeste", UF: "PE", MinPrefix: 50000, MaxPrefix: 59999, BasePrice: 26.90, BaseDays: 10},
	{Name: "Nordeste", UF: "CE", MinPrefix: 60000, MaxPrefix: 65999, BasePrice: 27.90, BaseDays: 11},
	{Name: "Norte", UF: "PA", MinPrefix: 66000, MaxPrefix: 69999, BasePrice: 32.90, BaseDays: 13},
	{Name: "Centro-Oeste", UF: "DF", MinPrefix: 70000, MaxPrefix: 76999, BasePrice: 22.90, BaseDays: 8},
	{Name: "Centro-Oeste", UF: "MT", MinPrefix: 77000, MaxPrefix: 79999, BasePrice: 25.90, BaseDays: 9},
	{Name: "Sul", UF: "PR", MinPrefix: 80000, MaxPrefix: 89999, BasePrice: 19.90, BaseDays: 7},
	{Name: "Sul", UF: "RS", MinPrefix: 90000, MaxPrefix: 99999, BasePrice: 21.90, BaseDays: 8},
}

// defaultRegion is used for CEPs outside every defined band, so quoting
// never fails on an exotic prefix.
var defaultRegion = regionRate{Name: "Brasil", UF: "BR", BasePrice: 24.90, BaseDays: 10}

// regionForCEP resolves the rate band for a normalized 8-digit CEP.
func regionForCEP(cep string) regionRate {
	prefix := 0
	for _, r := range cep[:5] {
		prefix = prefix*10 + int(r-'0')
	}
	for _, region := range regionRates {
		if prefix >= region.MinPrefix && prefix <= region.MaxPrefix {
			return region
		}
	}
	return defaultRegion
}
