package categorize

// CategoryOther is assigned when no rule matches.
const CategoryOther = "Other"

// Rule maps a category to the description keywords that select it.
// Rules are evaluated in slice order and the first keyword hit wins, so
// more specific categories must come before generic ones (for example
// "Payroll" before "Transfers Out", since payroll runs often mention
// both).
type Rule struct {
	Category    string
	Subcategory string
	Keywords    []string
}

var inflowRules = []Rule{
	{Category: "Client Revenue", Subcategory: "Invoices", Keywords: []string{"INVOICE", "INV#", "STRIPE", "PAYPAL", "SQUARE"}},
	{Category: "Client Revenue", Subcategory: "Retainers", Keywords: []string{"RETAINER", "RECURRING PAYMENT"}},
	{Category: "Financing", Keywords: []string{"LOAN", "SBA", "CAPITAL", "LINE OF CREDIT", "ADVANCE"}},
	{Category: "Tax Refund", Keywords: []string{"IRS", "TAX REFUND", "HMRC"}},
	{Category: "Interest Income", Keywords: []string{"INTEREST"}},
	{Category: "Transfers In", Keywords: []string{"TRANSFER", "XFER", "ZELLE"}},
	{Category: "Client Revenue", Keywords: []string{"PAYMENT", "DEPOSIT"}},
}

var outflowRules = []Rule{
	{Category: "Payroll", Keywords: []string{"GUSTO", "ADP", "PAYROLL", "SALARY", "WAGES"}},
	{Category: "Rent", Keywords: []string{"RENT", "LEASE", "WEWORK", "LANDLORD"}},
	{Category: "Taxes", Keywords: []string{"IRS", "TAX", "HMRC", "FRANCHISE"}},
	{Category: "Insurance", Keywords: []string{"INSURANCE", "GEICO", "ALLSTATE", "PREMIUM"}},
	{Category: "Software", Subcategory: "Infrastructure", Keywords: []string{"AWS", "AMAZON WEB", "GOOGLE CLOUD", "DIGITALOCEAN", "HEROKU"}},
	{Category: "Software", Subcategory: "Tools", Keywords: []string{"GITHUB", "SLACK", "ZOOM", "NOTION", "FIGMA", "ATLASSIAN", "SUBSCRIPTION"}},
	{Category: "Utilities", Keywords: []string{"ELECTRIC", "WATER", "GAS", "INTERNET", "COMCAST", "VERIZON", "AT&T", "PHONE"}},
	{Category: "Marketing", Keywords: []string{"ADS", "ADVERTISING", "FACEBOOK", "LINKEDIN", "MAILCHIMP"}},
	{Category: "Professional Services", Keywords: []string{"LEGAL", "ACCOUNTING", "CONSULTING", "ATTORNEY", "CPA"}},
	{Category: "Travel", Keywords: []string{"AIRLINE", "HOTEL", "UBER", "LYFT", "DELTA", "UNITED", "AIRBNB"}},
	{Category: "Meals", Keywords: []string{"RESTAURANT", "COFFEE", "CAFE", "DOORDASH", "GRUBHUB"}},
	{Category: "Supplies", Keywords: []string{"STAPLES", "OFFICE DEPOT", "SUPPLIES", "AMAZON"}},
	{Category: "Debt Service", Keywords: []string{"LOAN PAYMENT", "INTEREST CHARGE", "CREDIT CARD PAYMENT"}},
	{Category: "Bank Fees", Keywords: []string{"FEE", "SERVICE CHARGE", "OVERDRAFT", "WIRE"}},
	{Category: "Transfers Out", Keywords: []string{"TRANSFER", "XFER", "ZELLE"}},
}
