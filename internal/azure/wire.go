package azure

import (
	"bytes"
	"fmt"
	"strconv"
)

// SuiteTypeDynamic is the only suite type testsync creates.
const SuiteTypeDynamic = "DynamicTestSuite"

type planRequest struct {
	Name      string  `json:"name"`
	Iteration string  `json:"iteration"`
	Area      nameRef `json:"area"`
}

type nameRef struct {
	Name string `json:"name"`
}

type suiteRequest struct {
	Name        string `json:"name"`
	SuiteType   string `json:"suiteType"`
	QueryString string `json:"queryString"`
}

type runRequest struct {
	Name     string  `json:"name"`
	PointIDs []int64 `json:"pointIds"`
	Plan     planRef `json:"plan"`
}

type planRef struct {
	ID string `json:"id"`
}

// flexID decodes an identifier sent either as a JSON number or a numeric string.
// The service is not consistent: test case ids arrive as strings, point ids as numbers.
type flexID struct {
	value int64
	set   bool
}

func (f *flexID) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	s := string(bytes.Trim(b, `"`))
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %s: %w", b, err)
	}
	f.value, f.set = v, true
	return nil
}

type idRef struct {
	ID flexID `json:"id"`
}

type planResponse struct {
	ID        flexID `json:"id"`
	RootSuite *idRef `json:"rootSuite"`
}

type suiteListResponse struct {
	Value []idRef `json:"value"`
}

type pointResponse struct {
	ID       flexID `json:"id"`
	TestCase *idRef `json:"testCase"`
}

type pointListResponse struct {
	Value *[]pointResponse `json:"value"`
	Count int              `json:"count"`
}

type runResponse struct {
	ID flexID `json:"id"`
}
