// Copyright 2021 PingCAP, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"bytes"

	"go.uber.org/zap/zaptest"
)

// testingWriter 把日志行转发给 testing.T，供 InitTestLogger 使用。
// failOnWrite 为 true 时每次写入都会把测试标记为失败，用作 zap 的 ErrorOutput。
type testingWriter struct {
	t           zaptest.TestingT
	failOnWrite bool
}

func newTestingWriter(t zaptest.TestingT) testingWriter {
	return testingWriter{t: t}
}

func (w testingWriter) WithMarkFailed(v bool) testingWriter {
	return testingWriter{t: w.t, failOnWrite: v}
}

func (w testingWriter) Write(p []byte) (int, error) {
	// t.Logf 自带换行
	w.t.Logf("%s", bytes.TrimSuffix(p, []byte("\n")))
	if w.failOnWrite {
		w.t.Fail()
	}
	return len(p), nil
}

func (w testingWriter) Sync() error {
	return nil
}
