/*
 * Copyright (C) 2019-Present Pivotal Software, Inc. All rights reserved.
 *
 * This program and the accompanying materials are made available under the terms
 * of the Apache License, Version 2.0 (the "License”); you may not use this file
 * except in compliance with the License. You may obtain a copy of the License at:
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software distributed
 * under the License is distributed on an "AS IS" BASIS, WITHOUT WARRANTIES OR
 * CONDITIONS OF ANY KIND, either express or implied. See the License for the
 * specific language governing permissions and limitations under the License.
 */

package data

// language=sql
var Schema = `create table if not exists ticks
(
    id            integer primary key, -- aliases to rowid

    recorded      text        not null,

    requests      big integer not null,
    cache_hits    big integer not null,
    cache_misses  big integer not null,
    pods          integer     not null,
    cpu_usage     integer     not null,
    response_time integer     not null,
    active_users  big integer not null
);

create table if not exists log_entries
(
    id        integer primary key, -- aliases to rowid

    recorded  text not null,
    level     text not null,
    component text not null,
    message   text not null,

    tick_id   integer not null references ticks (id)
);
create index if not exists log_entries_by_level on log_entries (level);
`
