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
var SummaryQuery = `
select count(1)                    as ticks
     , coalesce(max(requests), 0)  as peak_requests
     , coalesce(max(pods), 0)      as max_pods
     , coalesce(avg(cpu_usage), 0) as avg_cpu
from ticks
;
`

// language=sql
var LevelTallyQuery = `
select level
     , count(1)
from log_entries
group by level
order by level asc
;
`
