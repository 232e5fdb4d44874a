package domain

// CCCDLength is the number of digits in a citizen identity card number.
const CCCDLength = 12

// CCCDInfo is what a CCCD number encodes about its owner.
type CCCDInfo struct {
	BirthYear int
	Gender    Gender
}

// ParseCCCD derives birth year and gender from a 12-digit CCCD number.
//
// Digit 3 is the century/gender code: century = 1900 + (code/2)*100,
// even codes are male and odd codes female. Digits 4-5 are the two-digit
// year within the century. Anything other than exactly 12 ASCII digits
// yields ok == false.
func ParseCCCD(s string) (info CCCDInfo, ok bool) {
	if !IsCCCD(s) {
		return CCCDInfo{}, false
	}

	code := int(s[3] - '0')
	century := 1900 + (code/2)*100
	year := int(s[4]-'0')*10 + int(s[5]-'0')

	gender := GenderMale
	if code%2 == 1 {
		gender = GenderFemale
	}

	return CCCDInfo{BirthYear: century + year, Gender: gender}, true
}

// IsCCCD reports whether s is exactly 12 ASCII digits.
func IsCCCD(s string) bool {
	if len(s) != CCCDLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
