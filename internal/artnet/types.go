package artnet

// ChannelValue defines an ArtNet Universe and the value of the DMX channel.
type ChannelValue struct {
	Universe uint16 // Universe: старший байт - SubUni, младший байт - Net.
	Channel  uint16 // Channel: номер байта (канал).
	Value    uint8  // Value: значение для канала.
}

// Universe wraps the 512 byte array for convenience.
type Universe [512]byte

func (u Universe) toByteSlice() [512]byte {
	return u
}

// UniverseStateMap holds the state of all used universes.
type UniverseStateMap map[uint16]Universe

// Conf описывает зеркалирование выводов в art-net.
type Conf struct {
	AddressRange string // AddressRange - сеть art-net (CIDR).
	Universe     uint16 // Universe - вселенная для значений выводов.
	MaxFPS       int    // MaxFPS - частота отправки.
}
