package wav

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
)

// 语音合成固定输出：24kHz 单声道 16bit PCM
const (
	SampleRate    = 24000
	NumChannels   = 1
	BitsPerSample = 16

	headerSize = 44
)

var ErrInvalidWAV = errors.New("invalid wav data")

// Encode 给原始 PCM 加上规范的 44 字节 RIFF/WAVE 头。
// data 块长度等于 PCM 字节数，RIFF 长度字段等于 36 + 数据长度
func Encode(pcm []byte) []byte {
	dataLen := uint32(len(pcm))
	byteRate := uint32(SampleRate * NumChannels * BitsPerSample / 8)
	blockAlign := uint16(NumChannels * BitsPerSample / 8)

	buf := make([]byte, headerSize+len(pcm))

	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], 36+dataLen)
	copy(buf[8:12], "WAVE")

	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16) // fmt 块长度
	binary.LittleEndian.PutUint16(buf[20:22], 1)  // PCM 编码
	binary.LittleEndian.PutUint16(buf[22:24], NumChannels)
	binary.LittleEndian.PutUint32(buf[24:28], SampleRate)
	binary.LittleEndian.PutUint32(buf[28:32], byteRate)
	binary.LittleEndian.PutUint16(buf[32:34], blockAlign)
	binary.LittleEndian.PutUint16(buf[34:36], BitsPerSample)

	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], dataLen)
	copy(buf[headerSize:], pcm)

	return buf
}

// Decode 从 WAV 取回 PCM 数据，用于校验和回读
func Decode(data []byte) ([]byte, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: too short", ErrInvalidWAV)
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, fmt.Errorf("%w: bad magic", ErrInvalidWAV)
	}
	if string(data[36:40]) != "data" {
		return nil, fmt.Errorf("%w: missing data chunk", ErrInvalidWAV)
	}

	dataLen := binary.LittleEndian.Uint32(data[40:44])
	if int(dataLen) != len(data)-headerSize {
		return nil, fmt.Errorf("%w: data length mismatch", ErrInvalidWAV)
	}

	return data[headerSize:], nil
}

// ConcatBase64 按章节顺序把 base64 PCM 片段拼成一个 WAV 文件
func ConcatBase64(fragments []string) ([]byte, error) {
	var pcm []byte
	for i, frag := range fragments {
		chunk, err := base64.StdEncoding.DecodeString(frag)
		if err != nil {
			return nil, fmt.Errorf("failed to decode fragment %d: %w", i, err)
		}
		pcm = append(pcm, chunk...)
	}
	return Encode(pcm), nil
}
