//go:build windows

package collector

import "github.com/yusufpapurcu/wmi"

func nativeWMIQuery(query string, dst interface{}) error {
	return wmi.Query(query, dst)
}
