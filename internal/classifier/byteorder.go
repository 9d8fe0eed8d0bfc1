package classifier

import "encoding/binary"

var (
	byteOrderBE = binary.BigEndian
	byteOrderLE = binary.LittleEndian
)
