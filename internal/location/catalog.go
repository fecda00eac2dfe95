package location

import "strings"

type state struct {
	name string
	code string
}

// states holds the Indian states and union territories in display order.
var states = []state{
	{"Andhra Pradesh", "AP"},
	{"Arunachal Pradesh", "AR"},
	{"Assam", "AS"},
	{"Bihar", "BR"},
	{"Chhattisgarh", "CT"},
	{"Goa", "GA"},
	{"Gujarat", "GJ"},
	{"Haryana", "HR"},
	{"Himachal Pradesh", "HP"},
	{"Jharkhand", "JH"},
	{"Karnataka", "KA"},
	{"Kerala", "KL"},
	{"Madhya Pradesh", "MP"},
	{"Maharashtra", "MH"},
	{"Manipur", "MN"},
	{"Meghalaya", "ML"},
	{"Mizoram", "MZ"},
	{"Nagaland", "NL"},
	{"Odisha", "OR"},
	{"Punjab", "PB"},
	{"Rajasthan", "RJ"},
	{"Sikkim", "SK"},
	{"Tamil Nadu", "TN"},
	{"Telangana", "TG"},
	{"Tripura", "TR"},
	{"Uttar Pradesh", "UP"},
	{"Uttarakhand", "UT"},
	{"West Bengal", "WB"},
	{"Andaman and Nicobar Islands", "AN"},
	{"Chandigarh", "CH"},
	{"Dadra and Nagar Haveli and Daman and Diu", "DH"},
	{"Delhi", "DL"},
	{"Jammu and Kashmir", "JK"},
	{"Ladakh", "LA"},
	{"Lakshadweep", "LD"},
	{"Puducherry", "PY"},
}

// cities is only populated for the states candidates most often pick.
var cities = map[string][]string{
	"Maharashtra": {
		"Mumbai", "Pune", "Nagpur", "Nashik", "Aurangabad", "Solapur", "Thane",
		"Navi Mumbai", "Kolhapur", "Amravati", "Sangli", "Jalgaon", "Akola", "Latur",
	},
	"Odisha": {
		"Bhubaneswar", "Cuttack", "Rourkela", "Berhampur", "Sambalpur", "Puri",
		"Balasore", "Bhadrak", "Baripada", "Jharsuguda", "Bhawanipatna",
	},
	"Karnataka": {
		"Bengaluru", "Mysuru", "Mangaluru", "Hubballi", "Dharwad", "Belagavi",
		"Kalaburagi", "Davanagere", "Ballari", "Shivamogga", "Tumakuru", "Udupi",
	},
	"Tamil Nadu": {
		"Chennai", "Coimbatore", "Madurai", "Tiruchirappalli", "Salem", "Tirunelveli",
		"Erode", "Vellore", "Thoothukudi", "Tiruppur", "Thanjavur", "Hosur",
	},
	"Delhi": {
		"New Delhi", "Delhi", "Dwarka", "Rohini", "Saket", "Karol Bagh", "Janakpuri",
	},
	"Gujarat": {
		"Ahmedabad", "Surat", "Vadodara", "Rajkot", "Bhavnagar", "Jamnagar",
		"Gandhinagar", "Junagadh", "Anand", "Bharuch", "Vapi",
	},
	"West Bengal": {
		"Kolkata", "Howrah", "Durgapur", "Asansol", "Siliguri", "Bardhaman",
		"Kharagpur", "Haldia", "Malda", "Darjeeling",
	},
	"Telangana": {
		"Hyderabad", "Warangal", "Nizamabad", "Karimnagar", "Khammam",
		"Secunderabad", "Mahbubnagar", "Nalgonda",
	},
	"Uttar Pradesh": {
		"Lucknow", "Kanpur", "Noida", "Ghaziabad", "Agra", "Varanasi", "Prayagraj",
		"Meerut", "Bareilly", "Aligarh", "Gorakhpur", "Greater Noida",
	},
	"Rajasthan": {
		"Jaipur", "Jodhpur", "Udaipur", "Kota", "Ajmer", "Bikaner", "Bhilwara", "Alwar",
	},
	"Kerala": {
		"Thiruvananthapuram", "Kochi", "Kozhikode", "Thrissur", "Kollam", "Kannur",
		"Alappuzha", "Palakkad",
	},
	"Madhya Pradesh": {
		"Bhopal", "Indore", "Jabalpur", "Gwalior", "Ujjain", "Sagar", "Rewa", "Satna",
	},
}

var (
	codeByState = make(map[string]string, len(states))
	stateByCode = make(map[string]string, len(states))
)

func init() {
	for _, s := range states {
		codeByState[strings.ToLower(s.name)] = s.code
		stateByCode[s.code] = s.name
	}
}

// Catalog is the offline location table. The zero value is ready to use.
type Catalog struct{}

// StatesMatching returns every state whose name contains query, ignoring case, in catalog order.
func (Catalog) StatesMatching(query string) []string {
	q := normalize(query)
	out := make([]string, 0)
	for _, s := range states {
		if strings.Contains(strings.ToLower(s.name), q) {
			out = append(out, s.name)
		}
	}
	return out
}

// CitiesForState returns a copy of the known cities for stateName, or an empty slice.
func (Catalog) CitiesForState(stateName string) []string {
	list, ok := cities[canonicalState(stateName)]
	if !ok {
		return []string{}
	}
	out := make([]string, len(list))
	copy(out, list)
	return out
}

// CitiesMatching filters CitiesForState by a case-insensitive substring.
func (c Catalog) CitiesMatching(stateName, query string) []string {
	q := normalize(query)
	out := make([]string, 0)
	for _, city := range c.CitiesForState(stateName) {
		if strings.Contains(strings.ToLower(city), q) {
			out = append(out, city)
		}
	}
	return out
}

// CodeFor returns the two-letter code of stateName, or "" when unknown.
func (Catalog) CodeFor(stateName string) string {
	return codeByState[normalize(stateName)]
}

// StateForCode returns the state name for a two-letter code, or "" when unknown.
func (Catalog) StateForCode(code string) string {
	return stateByCode[strings.ToUpper(strings.TrimSpace(code))]
}

// States returns the full state list.
func (c Catalog) States() []string {
	return c.StatesMatching("")
}

func canonicalState(name string) string {
	if code, ok := codeByState[normalize(name)]; ok {
		return stateByCode[code]
	}
	return name
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func capNames(names []string, n int) []string {
	if len(names) > n {
		return names[:n]
	}
	return names
}
